// Package memory is the in-process asset-storage collaborator. It backs local
// runs and the engine's test suite; production deployments substitute the
// platform's storage through the assetstore interfaces.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/assetstore"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

type token struct {
	owner       crossaddr.CrossAddress
	tokenURI    string
	name        string
	description string
	attributes  []entity.TokenAttribute
}

type collection struct {
	params      assetstore.CreateCollectionParams
	nextTokenID uint64
	tokens      map[uint64]*token
	// approvals is keyed by holder key + operator address.
	approvals map[string]bool
}

type Store struct {
	mu          sync.Mutex
	seq         uint64
	collections map[common.Address]*collection
	// tokenBalances is keyed by currency, then account key.
	tokenBalances map[entity.Currency]map[string]uint128.Uint128
}

var (
	_ assetstore.Contract        = (*Store)(nil)
	_ assetstore.PaymentContract = (*Store)(nil)
)

func New() *Store {
	return &Store{
		collections:   make(map[common.Address]*collection),
		tokenBalances: make(map[entity.Currency]map[string]uint128.Uint128),
	}
}

func (s *Store) CreateCollection(ctx context.Context, params assetstore.CreateCollectionParams) (common.Address, error) {
	if params.Owner.IsZero() {
		return common.Address{}, errors.Wrap(errs.InvalidIdentity, "collection owner is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	address := deriveAddress(params.Name, s.seq)
	s.collections[address] = &collection{
		params:      params,
		nextTokenID: 1,
		tokens:      make(map[uint64]*token),
		approvals:   make(map[string]bool),
	}
	return address, nil
}

func (s *Store) MintToken(ctx context.Context, params assetstore.MintTokenParams) (uint64, error) {
	if params.Owner.IsZero() {
		return 0, errors.Wrap(errs.InvalidIdentity, "token owner is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[params.Collection]
	if !ok {
		return 0, errors.Wrapf(errs.NotFound, "collection %s", params.Collection)
	}
	tokenID := coll.nextTokenID
	coll.nextTokenID++
	coll.tokens[tokenID] = &token{
		owner:       params.Owner,
		tokenURI:    params.TokenURI,
		name:        params.Name,
		description: params.Description,
		attributes:  params.Attributes,
	}
	return tokenID, nil
}

func (s *Store) OwnerOf(ctx context.Context, collectionAddr common.Address, tokenID uint64) (crossaddr.CrossAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.token(collectionAddr, tokenID)
	if err != nil {
		return crossaddr.CrossAddress{}, err
	}
	return tok.owner, nil
}

func (s *Store) SetTransferApproval(ctx context.Context, collectionAddr common.Address, holder crossaddr.CrossAddress, operator common.Address, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collectionAddr]
	if !ok {
		return errors.Wrapf(errs.NotFound, "collection %s", collectionAddr)
	}
	coll.approvals[approvalKey(holder, operator)] = approved
	return nil
}

func (s *Store) IsApprovedForAll(ctx context.Context, collectionAddr common.Address, holder crossaddr.CrossAddress, operator common.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collectionAddr]
	if !ok {
		return false, errors.Wrapf(errs.NotFound, "collection %s", collectionAddr)
	}
	return coll.approvals[approvalKey(holder, operator)], nil
}

func (s *Store) Transfer(ctx context.Context, collectionAddr common.Address, tokenID uint64, from, to crossaddr.CrossAddress) error {
	if to.IsZero() {
		return errors.Wrap(errs.InvalidIdentity, "transfer destination is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.token(collectionAddr, tokenID)
	if err != nil {
		return err
	}
	if !tok.owner.Equal(from) {
		return errors.Wrapf(errs.Unauthorized, "token %d of %s is not held by %s", tokenID, collectionAddr, from)
	}
	tok.owner = to
	return nil
}

func (s *Store) TransferPayment(ctx context.Context, currency entity.Currency, from, to crossaddr.CrossAddress, amount uint128.Uint128) error {
	if currency.IsNative() {
		return errors.Wrap(errs.Unsupported, "native currency settles on the engine ledger")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	balances, ok := s.tokenBalances[currency]
	if !ok {
		balances = make(map[string]uint128.Uint128)
		s.tokenBalances[currency] = balances
	}
	fromBalance := balances[from.Key()]
	if fromBalance.Cmp(amount) < 0 {
		return errors.Wrapf(errs.InsufficientFunds, "currency %d balance of %s", currency, from)
	}
	balances[from.Key()] = fromBalance.Sub(amount)
	balances[to.Key()] = balances[to.Key()].Add(amount)
	return nil
}

// SetTokenBalance seeds a payment-token balance. Test and local-mode helper.
func (s *Store) SetTokenBalance(currency entity.Currency, account crossaddr.CrossAddress, amount uint128.Uint128) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balances, ok := s.tokenBalances[currency]
	if !ok {
		balances = make(map[string]uint128.Uint128)
		s.tokenBalances[currency] = balances
	}
	balances[account.Key()] = amount
}

// TokenBalance reports a payment-token balance. Test and local-mode helper.
func (s *Store) TokenBalance(currency entity.Currency, account crossaddr.CrossAddress) uint128.Uint128 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenBalances[currency][account.Key()]
}

func (s *Store) token(collectionAddr common.Address, tokenID uint64) (*token, error) {
	coll, ok := s.collections[collectionAddr]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "collection %s", collectionAddr)
	}
	tok, ok := coll.tokens[tokenID]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "token %d of %s", tokenID, collectionAddr)
	}
	return tok, nil
}

func approvalKey(holder crossaddr.CrossAddress, operator common.Address) string {
	return holder.Key() + "|" + operator.String()
}

func deriveAddress(name string, seq uint64) common.Address {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	sum := sha256.Sum256(append([]byte(name), buf[:]...))
	addr, _ := common.AddressFromBytes(sum[:common.AddressLength])
	return addr
}
