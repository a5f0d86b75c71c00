package util

import (
	"container/list"
	"sync"

	"gorm.io/gorm"
)

// LRU cache for accountID -> email
type accountEntry struct {
	accountID uint
	email     string
}

type accountLRU struct {
	mu       sync.Mutex
	ll       *list.List
	cache    map[uint]*list.Element
	capacity int
}

var (
	emailCacheMu sync.RWMutex
	emailCache   *accountLRU
)

func currentEmailCache() *accountLRU {
	emailCacheMu.RLock()
	defer emailCacheMu.RUnlock()
	return emailCache
}

// InitAccountEmailCache initializes the LRU cache with given capacity.
// If capacity <= 0, a default of 1000 is used.
func InitAccountEmailCache(capacity int) {
	if capacity <= 0 {
		capacity = 1000
	}
	emailCacheMu.Lock()
	defer emailCacheMu.Unlock()
	emailCache = &accountLRU{
		ll:       list.New(),
		cache:    make(map[uint]*list.Element),
		capacity: capacity,
	}
}

// AccountEmailCacheGet returns email and true if present in cache.
func AccountEmailCacheGet(accountID uint) (string, bool) {
	c := currentEmailCache()
	if c == nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.cache[accountID]; ok {
		c.ll.MoveToFront(ele)
		return ele.Value.(accountEntry).email, true
	}
	return "", false
}

// AccountEmailCacheSet sets the email for an account in the cache.
func AccountEmailCacheSet(accountID uint, email string) {
	c := currentEmailCache()
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.cache[accountID]; ok {
		c.ll.MoveToFront(ele)
		ele.Value = accountEntry{accountID: accountID, email: email}
		return
	}
	c.cache[accountID] = c.ll.PushFront(accountEntry{accountID: accountID, email: email})
	if c.ll.Len() > c.capacity {
		// evict least recently used
		tail := c.ll.Back()
		delete(c.cache, tail.Value.(accountEntry).accountID)
		c.ll.Remove(tail)
	}
}

// AccountEmailCacheDelete drops an entry after the account's email changed.
func AccountEmailCacheDelete(accountID uint) {
	c := currentEmailCache()
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.cache[accountID]; ok {
		c.ll.Remove(ele)
		delete(c.cache, accountID)
	}
}

// GetAccountEmail returns the email for accountID using the cache, falling back to DB.
func GetAccountEmail(db *gorm.DB, accountID uint) string {
	if accountID == 0 {
		return ""
	}
	if email, ok := AccountEmailCacheGet(accountID); ok {
		return email
	}
	if db == nil {
		return ""
	}
	var a struct{ Email string }
	if err := db.Table("accounts").Select("email").Where("id = ?", accountID).Take(&a).Error; err != nil {
		return ""
	}
	if a.Email != "" {
		AccountEmailCacheSet(accountID, a.Email)
	}
	return a.Email
}
