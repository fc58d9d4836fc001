//go:build !sqlite

package storage

import "errors"

func newSQLiteStore(string) (Store, error) {
	return nil, errors.New("sqlite support is not compiled in (build with -tags sqlite)")
}
