package modules

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/forgelang/forge/internal/vm"
)

// InstallCrypto registers the `crypto` namespace: hashing and random-bytes
// helpers backed entirely by stdlib crypto/*.
func InstallCrypto(m *vm.Machine) {
	namespace(m, "crypto", map[string]vm.NativeFunc{
		"sha256":       cryptoHash(sha256.Sum256),
		"sha1":         cryptoHashVariable(sha1.New),
		"md5":          cryptoHashVariable(md5.New),
		"random_bytes": cryptoRandomBytes,
	})
}

func cryptoHash(sum func([]byte) [32]byte) vm.NativeFunc {
	return func(m *vm.Machine, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return vm.NullValue(), fmt.Errorf("crypto hash expects 1 argument, got %d", len(args))
		}
		digest := sum([]byte(vm.ToString(m.Heap(), args[0])))
		return m.Heap().NewString(hex.EncodeToString(digest[:])), nil
	}
}

func cryptoHashVariable(newHash func() hash.Hash) vm.NativeFunc {
	return func(m *vm.Machine, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return vm.NullValue(), fmt.Errorf("crypto hash expects 1 argument, got %d", len(args))
		}
		h := newHash()
		h.Write([]byte(vm.ToString(m.Heap(), args[0])))
		return m.Heap().NewString(hex.EncodeToString(h.Sum(nil))), nil
	}
}

func cryptoRandomBytes(m *vm.Machine, args []vm.Value) (vm.Value, error) {
	if len(args) != 1 || args[0].Kind != vm.KindInt {
		return vm.NullValue(), fmt.Errorf("crypto.random_bytes() expects 1 integer argument")
	}
	n := int(args[0].I)
	if n < 0 || n > 1<<20 {
		return vm.NullValue(), fmt.Errorf("crypto.random_bytes(): size out of range")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return vm.NullValue(), fmt.Errorf("crypto.random_bytes(): %w", err)
	}
	return m.Heap().NewString(hex.EncodeToString(buf)), nil
}
