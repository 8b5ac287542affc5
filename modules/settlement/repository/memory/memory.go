// Package memory is an in-memory settlement datagateway with snapshot
// transaction semantics. It backs the test suite and the "memory" datastore
// mode; deployments use the postgres repository.
package memory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

type state struct {
	contracts     map[common.Address]entity.SponsorContract
	accounts      map[string]uint128.Uint128
	allowlist     map[string]bool
	lastSponsored map[string]int64
	records       map[common.Address][]entity.CreationRecord
	windows       map[common.Address]entity.EventWindow
	blockHeight   int64
}

func newState() *state {
	return &state{
		contracts:     make(map[common.Address]entity.SponsorContract),
		accounts:      make(map[string]uint128.Uint128),
		allowlist:     make(map[string]bool),
		lastSponsored: make(map[string]int64),
		records:       make(map[common.Address][]entity.CreationRecord),
		windows:       make(map[common.Address]entity.EventWindow),
	}
}

func (s *state) clone() *state {
	clone := newState()
	for k, v := range s.contracts {
		clone.contracts[k] = v
	}
	for k, v := range s.accounts {
		clone.accounts[k] = v
	}
	for k, v := range s.allowlist {
		clone.allowlist[k] = v
	}
	for k, v := range s.lastSponsored {
		clone.lastSponsored[k] = v
	}
	for k, v := range s.records {
		records := make([]entity.CreationRecord, len(v))
		copy(records, v)
		clone.records[k] = records
	}
	for k, v := range s.windows {
		clone.windows[k] = v
	}
	clone.blockHeight = s.blockHeight
	return clone
}

// Repository implements datagateway.SettlementDataGateway against process
// memory. A transaction snapshots the state and publishes it on Commit; the
// store mutex is held for the transaction's lifetime, which serializes calls
// the same way the surrounding ledger would.
type Repository struct {
	mu    sync.Mutex
	state *state

	// transaction view; nil on the root repository
	parent *Repository
	staged *state
	done   bool
}

var _ datagateway.SettlementDataGatewayWithTx = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{state: newState()}
}

func (r *Repository) BeginSettlementTx(ctx context.Context) (datagateway.SettlementDataGatewayWithTx, error) {
	if r.parent != nil {
		return nil, errors.New("nested transactions are not supported")
	}
	r.mu.Lock()
	return &Repository{parent: r, staged: r.state.clone()}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.parent == nil || r.done {
		return nil
	}
	r.parent.state = r.staged
	r.done = true
	r.parent.mu.Unlock()
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.parent == nil || r.done {
		return nil
	}
	r.done = true
	r.parent.mu.Unlock()
	return nil
}

// view returns the state this repository reads and writes. Reads outside a
// transaction take the store lock for the duration of the call.
func (r *Repository) view() (*state, func()) {
	if r.parent != nil {
		return r.staged, func() {}
	}
	r.mu.Lock()
	return r.state, r.mu.Unlock
}

func (r *Repository) GetSponsorContract(ctx context.Context, address common.Address) (*entity.SponsorContract, error) {
	s, release := r.view()
	defer release()

	contract, ok := s.contracts[address]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "sponsor contract %s", address)
	}
	return &contract, nil
}

func (r *Repository) CreateSponsorContract(ctx context.Context, contract entity.SponsorContract) error {
	s, release := r.view()
	defer release()

	if _, ok := s.contracts[contract.Address]; ok {
		return errors.Wrapf(errs.Duplicate, "sponsor contract %s", contract.Address)
	}
	s.contracts[contract.Address] = contract
	return nil
}

func (r *Repository) UpdateSponsorConfig(ctx context.Context, address common.Address, config entity.SponsorConfig) error {
	s, release := r.view()
	defer release()

	contract, ok := s.contracts[address]
	if !ok {
		return errors.Wrapf(errs.NotFound, "sponsor contract %s", address)
	}
	contract.Sponsoring = config
	s.contracts[address] = contract
	return nil
}

func (r *Repository) UpdateContractBalance(ctx context.Context, address common.Address, balance uint128.Uint128) error {
	s, release := r.view()
	defer release()

	contract, ok := s.contracts[address]
	if !ok {
		return errors.Wrapf(errs.NotFound, "sponsor contract %s", address)
	}
	contract.Balance = balance
	s.contracts[address] = contract
	return nil
}

func (r *Repository) GetAccountBalance(ctx context.Context, account string) (uint128.Uint128, error) {
	s, release := r.view()
	defer release()
	return s.accounts[account], nil
}

func (r *Repository) SetAccountBalance(ctx context.Context, account string, balance uint128.Uint128) error {
	s, release := r.view()
	defer release()
	s.accounts[account] = balance
	return nil
}

func (r *Repository) GetAllowlisted(ctx context.Context, address common.Address, account string) (bool, error) {
	s, release := r.view()
	defer release()
	return s.allowlist[allowKey(address, account)], nil
}

func (r *Repository) SetAllowlisted(ctx context.Context, address common.Address, account string, allowed bool) error {
	s, release := r.view()
	defer release()
	s.allowlist[allowKey(address, account)] = allowed
	return nil
}

func (r *Repository) GetLastSponsoredBlock(ctx context.Context, address common.Address, account string) (int64, error) {
	s, release := r.view()
	defer release()

	height, ok := s.lastSponsored[allowKey(address, account)]
	if !ok {
		return 0, errors.Wrapf(errs.NotFound, "no sponsored call for %s on %s", account, address)
	}
	return height, nil
}

func (r *Repository) SetLastSponsoredBlock(ctx context.Context, address common.Address, account string, blockHeight int64) error {
	s, release := r.view()
	defer release()
	s.lastSponsored[allowKey(address, account)] = blockHeight
	return nil
}

func (r *Repository) NextBlockHeight(ctx context.Context) (int64, error) {
	s, release := r.view()
	defer release()
	s.blockHeight++
	return s.blockHeight, nil
}

func (r *Repository) CreateCreationRecord(ctx context.Context, record entity.CreationRecord) error {
	s, release := r.view()
	defer release()
	s.records[record.ContractAddress] = append(s.records[record.ContractAddress], record)
	return nil
}

func (r *Repository) GetRecentCreationRecords(ctx context.Context, address common.Address, limit int) ([]entity.CreationRecord, error) {
	s, release := r.view()
	defer release()

	records := s.records[address]
	// newest first
	result := make([]entity.CreationRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		result = append(result, records[i])
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Repository) PruneCreationRecords(ctx context.Context, address common.Address, keep int) (int64, error) {
	s, release := r.view()
	defer release()

	records := s.records[address]
	if keep < 0 || len(records) <= keep {
		return 0, nil
	}
	removed := len(records) - keep
	s.records[address] = append([]entity.CreationRecord(nil), records[removed:]...)
	return int64(removed), nil
}

func (r *Repository) CreateEventWindow(ctx context.Context, window entity.EventWindow) error {
	s, release := r.view()
	defer release()

	if _, ok := s.windows[window.CollectionAddress]; ok {
		return errors.Wrapf(errs.Duplicate, "event window for %s", window.CollectionAddress)
	}
	s.windows[window.CollectionAddress] = window
	return nil
}

func (r *Repository) GetEventWindow(ctx context.Context, collection common.Address) (*entity.EventWindow, error) {
	s, release := r.view()
	defer release()

	window, ok := s.windows[collection]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "event window for %s", collection)
	}
	return &window, nil
}

func allowKey(address common.Address, account string) string {
	return address.String() + "|" + account
}
