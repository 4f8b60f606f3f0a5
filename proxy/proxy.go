package proxy

import (
	"iter"
	"sync"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/db"
	"github.com/nickyhof/StructDB/mem"
	"github.com/nickyhof/StructDB/sql"
)

// ChangeKind classifies a change notification.
type ChangeKind int

const (
	Inserted ChangeKind = iota
	Updated
	Deleted
)

// Notification is one change event delivered by the external push channel.
// The transport that produces them is out of scope; the proxy's contract is
// only that every notification already delivered is applied to the local
// cache before any later read is answered.
type Notification struct {
	Table string
	Key   int64
	Kind  ChangeKind
}

// Backend is the remote change-notified proxy engine. Writes are forwarded
// to the upstream backend and mirrored into a local cache; reads are served
// from the cache after draining the notification feed. A table not yet seen
// is primed with a full upstream scan on first read.
type Backend struct {
	upstream db.Backend
	feed     <-chan Notification

	mu     sync.Mutex
	cache  *mem.Backend
	primed map[string]*core.Table
}

// New wraps an upstream backend with a notification-fed local cache.
func New(upstream db.Backend, feed <-chan Notification) *Backend {
	return &Backend{
		upstream: upstream,
		feed:     feed,
		cache:    mem.New(),
		primed:   make(map[string]*core.Table),
	}
}

func (b *Backend) CreateTable(desc *core.Table) error {
	if err := b.upstream.CreateTable(desc); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.cache.CreateTable(desc); err != nil {
		return err
	}
	b.primed[desc.Name] = desc
	return nil
}

func (b *Backend) DropTable(desc *core.Table, ifExists bool) error {
	if err := b.upstream.DropTable(desc, ifExists); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.primed, desc.Name)
	return b.cache.DropTable(desc, true)
}

func (b *Backend) Insert(stmt *sql.Statement) (int64, error) {
	key, err := b.upstream.Insert(stmt)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.primed[stmt.Table.Name]; ok {
		if err := b.storeRow(stmt.Table, key); err != nil {
			b.invalidate(stmt.Table)
		}
	}
	return key, nil
}

func (b *Backend) Update(stmt *sql.Statement) (int64, error) {
	affected, err := b.upstream.Update(stmt)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.primed[stmt.Table.Name]; ok {
		if _, err := b.cache.Update(stmt); err != nil {
			b.invalidate(stmt.Table)
		}
	}
	return affected, nil
}

func (b *Backend) Delete(stmt *sql.Statement) (int64, error) {
	affected, err := b.upstream.Delete(stmt)
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.primed[stmt.Table.Name]; ok {
		if _, err := b.cache.Delete(stmt); err != nil {
			b.invalidate(stmt.Table)
		}
	}
	return affected, nil
}

func (b *Backend) Select(stmt *sql.Statement) iter.Seq2[db.Row, error] {
	b.mu.Lock()
	b.drain()
	if err := b.prime(stmt.Table); err != nil {
		b.mu.Unlock()
		return db.YieldError(err)
	}
	b.mu.Unlock()

	return b.cache.Select(stmt)
}

func (b *Backend) Tables() ([]string, error) {
	return b.upstream.Tables()
}

// drain applies every notification already delivered on the feed. The feed's
// delivery order is the logical clock: a read issued after a notification
// arrives always observes its effect. Caller holds b.mu.
func (b *Backend) drain() {
	for {
		select {
		case n := <-b.feed:
			desc, ok := b.primed[n.Table]
			if !ok {
				// Unknown table: nothing cached yet, the first read
				// will prime it.
				continue
			}
			if err := b.apply(desc, n); err != nil {
				// A notification that cannot be replayed must not leave
				// stale rows behind; drop the table so the next read
				// re-primes from upstream.
				b.invalidate(desc)
			}
		default:
			return
		}
	}
}

func (b *Backend) apply(desc *core.Table, n Notification) error {
	byKey := &sql.Statement{
		Kind:    sql.SelectByKey,
		Table:   desc,
		Filters: []sql.Filter{{Column: desc.Identity().Name, Value: n.Key}},
	}
	if _, err := b.cache.Delete(byKey); err != nil {
		return err
	}
	if n.Kind == Deleted {
		return nil
	}
	return b.storeRow(desc, n.Key)
}

// invalidate drops a table's cache so the next read primes it again from
// upstream. Caller holds b.mu.
func (b *Backend) invalidate(desc *core.Table) {
	delete(b.primed, desc.Name)
	b.cache.DropTable(desc, true)
}

// prime loads a table's full contents from upstream on first read. Caller
// holds b.mu.
func (b *Backend) prime(desc *core.Table) error {
	if _, ok := b.primed[desc.Name]; ok {
		return nil
	}
	if err := b.cache.CreateTable(desc); err != nil {
		return err
	}

	all := &sql.Statement{Kind: sql.SelectMatching, Table: desc}
	for row, err := range b.upstream.Select(all) {
		if err != nil {
			b.cache.DropTable(desc, true)
			return err
		}
		if err := b.put(desc, row); err != nil {
			b.cache.DropTable(desc, true)
			return err
		}
	}
	b.primed[desc.Name] = desc
	return nil
}

// storeRow refreshes one cached row from upstream by key.
func (b *Backend) storeRow(desc *core.Table, key int64) error {
	byKey := &sql.Statement{
		Kind:    sql.SelectByKey,
		Table:   desc,
		Filters: []sql.Filter{{Column: desc.Identity().Name, Value: key}},
	}
	for row, err := range b.upstream.Select(byKey) {
		if err != nil {
			return err
		}
		if _, err := b.cache.Delete(byKey); err != nil {
			return err
		}
		return b.put(desc, row)
	}
	// No row upstream: drop any stale cache entry.
	_, err := b.cache.Delete(byKey)
	return err
}

// put inserts an upstream row into the cache with its identity preserved,
// normalizing driver types so cached predicates compare cleanly.
func (b *Backend) put(desc *core.Table, row db.Row) error {
	ins := &sql.Statement{Kind: sql.InsertStatement, Table: desc}
	for _, col := range desc.Columns {
		raw, ok := row[col.Name]
		if !ok {
			continue
		}
		val := raw
		if raw != nil {
			coerced, err := db.Coerce(col.Kind, raw)
			if err != nil {
				return err
			}
			val = coerced
		}
		ins.Columns = append(ins.Columns, col.Name)
		ins.Values = append(ins.Values, val)
	}
	_, err := b.cache.Insert(ins)
	return err
}
