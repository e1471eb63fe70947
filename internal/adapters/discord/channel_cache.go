package discord

import "sync"

type channelKey struct {
	guildID string
	name    string
}

// channelCache maps channel names to IDs per guild.
type channelCache struct {
	mu  sync.RWMutex
	ids map[channelKey]string
}

func newChannelCache() *channelCache {
	return &channelCache{ids: make(map[channelKey]string)}
}

func (c *channelCache) Get(guildID, name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[channelKey{guildID, name}]
	return id, ok
}

func (c *channelCache) Set(guildID, name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[channelKey{guildID, name}] = id
}

func (c *channelCache) Invalidate(guildID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, channelKey{guildID, name})
}
