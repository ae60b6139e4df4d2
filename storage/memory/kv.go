package memory

import (
	"sync"

	"github.com/jmcleod/racetrack/storage"
)

// KV is a thread-safe in-memory storage.KV.
type KV struct {
	mu   sync.RWMutex
	data map[string]map[string]*storage.Envelope
}

var _ storage.KV = (*KV)(nil)

// NewKV creates an empty KV.
func NewKV() *KV {
	return &KV{data: make(map[string]map[string]*storage.Envelope)}
}

func cloneEnvelope(env *storage.Envelope) *storage.Envelope {
	if env == nil {
		return nil
	}
	return &storage.Envelope{
		Ver:        env.Ver,
		Scheme:     env.Scheme,
		Nonce:      append([]byte(nil), env.Nonce...),
		Ciphertext: append([]byte(nil), env.Ciphertext...),
	}
}

func (kv *KV) Put(bucket, key string, envelope *storage.Envelope) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if _, ok := kv.data[bucket]; !ok {
		kv.data[bucket] = make(map[string]*storage.Envelope)
	}
	kv.data[bucket][key] = cloneEnvelope(envelope)
	return nil
}

func (kv *KV) Get(bucket, key string) (*storage.Envelope, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	b, ok := kv.data[bucket]
	if !ok {
		return nil, storage.ErrBucketNotFound
	}
	env, ok := b[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneEnvelope(env), nil
}

func (kv *KV) Delete(bucket, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	b, ok := kv.data[bucket]
	if !ok {
		return storage.ErrBucketNotFound
	}
	if _, ok := b[key]; !ok {
		return storage.ErrNotFound
	}
	delete(b, key)
	return nil
}

func (kv *KV) List(bucket string) ([]string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	var keys []string
	for k := range kv.data[bucket] {
		keys = append(keys, k)
	}
	return keys, nil
}
