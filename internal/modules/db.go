package modules

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/forgelang/forge/internal/host"
	"github.com/forgelang/forge/internal/vm"
)

// InstallDB registers the `db` namespace: db.open(path) returns a handle
// object whose query/exec/close fields are closures bound to that
// connection, grounded on modernc.org/sqlite's pure-Go database/sql driver.
func InstallDB(m *vm.Machine) {
	namespace(m, "db", map[string]vm.NativeFunc{
		"open": dbOpen,
	})
}

type dbHandle struct {
	mu   sync.Mutex
	conn *sql.DB
}

func dbOpen(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 {
		return vm.NullValue(), fmt.Errorf("db.open() expects 1 argument, got %d", len(args))
	}
	conn, err := sql.Open("sqlite", vm.ToString(m.Heap(), args[0]))
	if err != nil {
		return vm.NullValue(), fmt.Errorf("db.open(): %w", err)
	}
	h := &dbHandle{conn: conn}

	ref, obj := m.Heap().NewObject()
	obj.Flds["query"] = m.Heap().NewNative(h.query)
	obj.Flds["exec"] = m.Heap().NewNative(h.exec)
	obj.Flds["close"] = m.Heap().NewNative(h.close)
	return ref, nil
}

func (h *dbHandle) query(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) < 1 {
		return vm.NullValue(), fmt.Errorf("db handle.query() expects at least 1 argument")
	}
	sqlArgs, err := bindArgs(m, args[1:])
	if err != nil {
		return vm.NullValue(), err
	}

	h.mu.Lock()
	rows, err := h.conn.Query(vm.ToString(m.Heap(), args[0]), sqlArgs...)
	h.mu.Unlock()
	if err != nil {
		return vm.NullValue(), fmt.Errorf("db query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return vm.NullValue(), fmt.Errorf("db query: %w", err)
	}

	var out []vm.Value
	for rows.Next() {
		scanDest := make([]interface{}, len(cols))
		scanVals := make([]interface{}, len(cols))
		for i := range scanDest {
			scanDest[i] = &scanVals[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return vm.NullValue(), fmt.Errorf("db query: %w", err)
		}
		ref, obj := m.Heap().NewObject()
		for i, col := range cols {
			cv, err := host.ToValue(m.Heap(), scanVals[i])
			if err != nil {
				return vm.NullValue(), err
			}
			obj.Flds[col] = cv
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return vm.NullValue(), fmt.Errorf("db query: %w", err)
	}
	return m.Heap().NewArray(out), nil
}

func (h *dbHandle) exec(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) < 1 {
		return vm.NullValue(), fmt.Errorf("db handle.exec() expects at least 1 argument")
	}
	sqlArgs, err := bindArgs(m, args[1:])
	if err != nil {
		return vm.NullValue(), err
	}

	h.mu.Lock()
	result, err := h.conn.Exec(vm.ToString(m.Heap(), args[0]), sqlArgs...)
	h.mu.Unlock()
	if err != nil {
		return vm.NullValue(), fmt.Errorf("db exec: %w", err)
	}
	affected, _ := result.RowsAffected()
	return vm.IntValue(affected), nil
}

func (h *dbHandle) close(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if err := h.conn.Close(); err != nil {
		return vm.NullValue(), fmt.Errorf("db close: %w", err)
	}
	return vm.NullValue(), nil
}

func bindArgs(m *vm.Machine, args []vm.Value) ([]interface{}, error) {
	out := make([]interface{}, len(args))
	for i, a := range args {
		v, err := host.FromValue(m.Heap(), a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
