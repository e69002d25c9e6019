package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// IFileStore keeps original uploads around so a document can be re-chunked
// later without asking the client to resend it.
type IFileStore interface {
	Name() string
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type FactoryFunc func(args interface{}) (IFileStore, error)

var mp = make(map[string]FactoryFunc)

func Register(name string, fn FactoryFunc) {
	mp[name] = fn
}

func New(name string, args interface{}) (IFileStore, error) {
	fn, ok := mp[name]
	if !ok {
		return nil, fmt.Errorf("file store not found, name:%s", name)
	}
	return fn(args)
}

func decodeConfig(args interface{}, out interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
