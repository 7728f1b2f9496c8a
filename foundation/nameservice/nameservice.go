// Package nameservice reads a folder of wallet key files and creates a name
// service lookup for the identities they own.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
)

// NameService maintains a map of identities for name lookup.
type NameService struct {
	identities map[string]string
}

// New constructs a name service with the wallets found under root. The name
// of an identity is the key file name without its extension.
func New(root string) (*NameService, error) {
	ns := NameService{
		identities: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != wallet.KeyExtension {
			return nil
		}

		w, err := wallet.Load(fileName)
		if err != nil {
			return err
		}

		ns.identities[w.PublicKey()] = strings.TrimSuffix(filepath.Base(fileName), wallet.KeyExtension)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified identity, or the identity
// itself when it has no name.
func (ns *NameService) Lookup(identity string) string {
	name, exists := ns.identities[identity]
	if !exists {
		return identity
	}
	return name
}

// Copy returns a copy of the map of identities and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.identities))
	for identity, name := range ns.identities {
		cpy[identity] = name
	}
	return cpy
}
