package asr

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ccp-p/asr-media-cli/retro-transcriber/pkg/utils"
)

// ResultCache 以分片内容为键的识别结果缓存，底层为badger
type ResultCache struct {
	db *badger.DB
}

type cacheEntry struct {
	Text      string    `msgpack:"text"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// badgerLogger 把badger日志转到全局logrus，Info降为Debug
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{})   { utils.Log.Errorf(f, v...) }
func (badgerLogger) Warningf(f string, v ...interface{}) { utils.Log.Warnf(f, v...) }
func (badgerLogger) Infof(f string, v ...interface{})    { utils.Log.Debugf(f, v...) }
func (badgerLogger) Debugf(f string, v ...interface{})   { utils.Log.Tracef(f, v...) }

// OpenResultCache 打开缓存；dir为空时使用内存模式
func OpenResultCache(dir string) (*ResultCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else if err := utils.EnsureDirExists(dir); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开识别缓存失败: %w", err)
	}
	return &ResultCache{db: db}, nil
}

// Get 读取缓存，未命中时ok为false
func (c *ResultCache) Get(key string) (string, bool, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var entry cacheEntry
	if err := msgpack.Unmarshal(val, &entry); err != nil {
		return "", false, fmt.Errorf("解析缓存失败: %w", err)
	}
	return entry.Text, true, nil
}

// Set 写入缓存
func (c *ResultCache) Set(key, text string) error {
	data, err := msgpack.Marshal(&cacheEntry{Text: text, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("序列化缓存失败: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Close 关闭缓存
func (c *ResultCache) Close() error {
	return c.db.Close()
}

// CachedRecognizer 在识别器外加一层缓存，只缓存成功的识别结果。
// 缓存读写失败只记录日志，不影响识别。
type CachedRecognizer struct {
	Backend string
	Inner   Recognizer
	Cache   *ResultCache
}

// NewCachedRecognizer 创建带缓存的识别器
func NewCachedRecognizer(backend string, inner Recognizer, cache *ResultCache) *CachedRecognizer {
	return &CachedRecognizer{Backend: backend, Inner: inner, Cache: cache}
}

// Recognize 实现 Recognizer
func (c *CachedRecognizer) Recognize(ctx context.Context, audio []byte) (string, error) {
	key := CacheKey(c.Backend, audio)

	if text, ok, err := c.Cache.Get(key); err != nil {
		utils.Warn("读取识别缓存失败 %s: %v", key, err)
	} else if ok {
		utils.Debug("命中识别缓存: %s", key)
		return text, nil
	}

	text, err := c.Inner.Recognize(ctx, audio)
	if err != nil {
		return "", err
	}

	if err := c.Cache.Set(key, text); err != nil {
		utils.Warn("写入识别缓存失败 %s: %v", key, err)
	}
	return text, nil
}
