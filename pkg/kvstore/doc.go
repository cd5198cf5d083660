// Package kvstore provides durable string key-value stores that back the
// persisted authentication session.
//
// Every store implements the same three methods:
//
//	Get(ctx, key) (value string, ok bool, err error)
//	Set(ctx, key, value string) error
//	Delete(ctx, keys ...string) error
//
// A missing key is reported by Get with ok=false and a nil error. Deleting a
// missing key is not an error.
//
// # Back-ends
//
//   - Memory keeps values in a map guarded by a RWMutex. It is the default
//     for tests and short-lived processes.
//   - File keeps all values in a single JSON document, written atomically
//     through a temp file and rename with 0600 permissions. It suits a CLI
//     that keeps its session in the user's home directory.
//   - Redis stores each key under a prefix in a go-redis UniversalClient.
//     DialRedis connects with retries from a RedisConfig.
//   - SQLite stores values in a single kv table through mattn/go-sqlite3.
//
// # Usage
//
//	store, err := kvstore.OpenFile(filepath.Join(home, ".authkit", "session.json"))
//	if err != nil {
//	    return err
//	}
//	mgr, err := session.New(endpoints, session.WithStore(store))
package kvstore
