package registry

import (
	"time"

	"nftledger/ledger"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

// The registry is deployment bookkeeping only: it records which
// deployer identity stood up which ledger instance. It never touches
// ledger invariants.

const prefixDeployerInstances = "REGISTRY:DEPLOYER:INSTANCES:"

type Store interface {
	WriteProperty(key, val []byte) error
	ReadProperty(key []byte) ([]byte, error)
}

type Instance struct {
	ID        string
	Deployer  string
	Name      string
	Symbol    string
	CreatedAt time.Time
}

func deployerKey(deployer string) []byte {
	return append([]byte(prefixDeployerInstances), deployer...)
}

// Record appends an instance entry under the deployer identity and
// returns it. Anonymous deployers are rejected.
func Record(store Store, deployer, name, symbol string) (*Instance, error) {
	if deployer == "" || deployer == ledger.AnonymousOwner {
		return nil, errors.New("anonymous deployer")
	}
	instances, err := List(store, deployer)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	instance := &Instance{
		ID:        id.String(),
		Deployer:  deployer,
		Name:      name,
		Symbol:    symbol,
		CreatedAt: time.Now(),
	}
	instances = append(instances, instance)
	val := ledger.MsgpackMarshalPanic(instances)
	err = store.WriteProperty(deployerKey(deployer), val)
	if err != nil {
		return nil, errors.Wrap(err, "write registry")
	}
	return instance, nil
}

func List(store Store, deployer string) ([]*Instance, error) {
	val, err := store.ReadProperty(deployerKey(deployer))
	if err != nil {
		return nil, errors.Wrap(err, "read registry")
	}
	if len(val) == 0 {
		return nil, nil
	}
	var instances []*Instance
	err = ledger.MsgpackUnmarshal(val, &instances)
	if err != nil {
		return nil, errors.Wrap(err, "decode registry")
	}
	return instances, nil
}
