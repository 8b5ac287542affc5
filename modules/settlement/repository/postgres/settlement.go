package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sponsornet/settlement-engine/common"
	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
)

func (r *Repository) GetSponsorContract(ctx context.Context, address common.Address) (*entity.SponsorContract, error) {
	row := r.db.QueryRow(ctx, `
		SELECT address, admin, balance, fee_amount, sponsoring_enabled, sponsoring_mode, rate_limit_blocks, created_at
		FROM settlement_sponsor_contracts
		WHERE address = $1`, address.String())

	var (
		addressStr, adminKey  string
		balance, feeAmount    pgtype.Numeric
		enabled               bool
		mode                  int32
		rateLimitBlocks       int64
		createdAt             pgtype.Timestamp
	)
	err := row.Scan(&addressStr, &adminKey, &balance, &feeAmount, &enabled, &mode, &rateLimitBlocks, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "sponsor contract %s", address)
		}
		return nil, errors.Wrap(err, "error during query")
	}

	contract, err := mapSponsorContractRow(addressStr, adminKey, balance, feeAmount, enabled, mode, rateLimitBlocks, createdAt)
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func mapSponsorContractRow(addressStr, adminKey string, balance, feeAmount pgtype.Numeric, enabled bool, mode int32, rateLimitBlocks int64, createdAt pgtype.Timestamp) (*entity.SponsorContract, error) {
	address, err := common.HexToAddress(addressStr)
	if err != nil {
		return nil, errors.Wrap(err, "malformed contract address found in database")
	}
	admin, err := crossAddressFromKey(adminKey)
	if err != nil {
		return nil, err
	}
	balanceValue, err := uint128FromNumeric(balance)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse balance")
	}
	feeValue, err := uint128FromNumeric(feeAmount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse fee amount")
	}
	var created time.Time
	if createdAt.Valid {
		created = createdAt.Time.UTC()
	}
	return &entity.SponsorContract{
		Address:   address,
		Admin:     admin,
		Balance:   balanceValue,
		FeeAmount: feeValue,
		Sponsoring: entity.SponsorConfig{
			Enabled:         enabled,
			Mode:            entity.SponsoringMode(mode),
			RateLimitBlocks: rateLimitBlocks,
		},
		CreatedAt: created,
	}, nil
}

func (r *Repository) CreateSponsorContract(ctx context.Context, contract entity.SponsorContract) error {
	balance, err := numericFromUint128(contract.Balance)
	if err != nil {
		return err
	}
	feeAmount, err := numericFromUint128(contract.FeeAmount)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO settlement_sponsor_contracts (address, admin, balance, fee_amount, sponsoring_enabled, sponsoring_mode, rate_limit_blocks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		contract.Address.String(), contract.Admin.Key(), balance, feeAmount,
		contract.Sponsoring.Enabled, int32(contract.Sponsoring.Mode), contract.Sponsoring.RateLimitBlocks,
		pgtype.Timestamp{Time: contract.CreatedAt.UTC(), Valid: true},
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) UpdateSponsorConfig(ctx context.Context, address common.Address, config entity.SponsorConfig) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE settlement_sponsor_contracts
		SET sponsoring_enabled = $2, sponsoring_mode = $3, rate_limit_blocks = $4
		WHERE address = $1`,
		address.String(), config.Enabled, int32(config.Mode), config.RateLimitBlocks,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errs.NotFound, "sponsor contract %s", address)
	}
	return nil
}

func (r *Repository) UpdateContractBalance(ctx context.Context, address common.Address, balance uint128.Uint128) error {
	value, err := numericFromUint128(balance)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE settlement_sponsor_contracts SET balance = $2 WHERE address = $1`,
		address.String(), value,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errs.NotFound, "sponsor contract %s", address)
	}
	return nil
}

func (r *Repository) GetAccountBalance(ctx context.Context, account string) (uint128.Uint128, error) {
	row := r.db.QueryRow(ctx, `
		SELECT balance FROM settlement_accounts WHERE account = $1`, account)

	var balance pgtype.Numeric
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uint128.Zero, nil
		}
		return uint128.Zero, errors.Wrap(err, "error during query")
	}
	value, err := uint128FromNumeric(balance)
	if err != nil {
		return uint128.Zero, errors.Wrap(err, "failed to parse balance")
	}
	return value, nil
}

func (r *Repository) SetAccountBalance(ctx context.Context, account string, balance uint128.Uint128) error {
	value, err := numericFromUint128(balance)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO settlement_accounts (account, balance)
		VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance`,
		account, value,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) GetAllowlisted(ctx context.Context, address common.Address, account string) (bool, error) {
	row := r.db.QueryRow(ctx, `
		SELECT allowed FROM settlement_allowlist
		WHERE contract_address = $1 AND account = $2`,
		address.String(), account)

	var allowed bool
	if err := row.Scan(&allowed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrap(err, "error during query")
	}
	return allowed, nil
}

func (r *Repository) SetAllowlisted(ctx context.Context, address common.Address, account string, allowed bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settlement_allowlist (contract_address, account, allowed)
		VALUES ($1, $2, $3)
		ON CONFLICT (contract_address, account) DO UPDATE SET allowed = EXCLUDED.allowed`,
		address.String(), account, allowed,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) GetLastSponsoredBlock(ctx context.Context, address common.Address, account string) (int64, error) {
	row := r.db.QueryRow(ctx, `
		SELECT last_block FROM settlement_sponsored_calls
		WHERE contract_address = $1 AND account = $2`,
		address.String(), account)

	var lastBlock int64
	if err := row.Scan(&lastBlock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errors.Wrapf(errs.NotFound, "no sponsored call for %s on %s", account, address)
		}
		return 0, errors.Wrap(err, "error during query")
	}
	return lastBlock, nil
}

func (r *Repository) SetLastSponsoredBlock(ctx context.Context, address common.Address, account string, blockHeight int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settlement_sponsored_calls (contract_address, account, last_block)
		VALUES ($1, $2, $3)
		ON CONFLICT (contract_address, account) DO UPDATE SET last_block = EXCLUDED.last_block`,
		address.String(), account, blockHeight,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) NextBlockHeight(ctx context.Context) (int64, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE settlement_engine_state SET block_height = block_height + 1
		WHERE id = 1
		RETURNING block_height`)

	var height int64
	if err := row.Scan(&height); err != nil {
		return 0, errors.Wrap(err, "error during query")
	}
	return height, nil
}

func (r *Repository) CreateCreationRecord(ctx context.Context, record entity.CreationRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settlement_creation_records (contract_address, kind, creator, asset_address, token_id, block_height, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ContractAddress.String(), string(record.Kind), record.Creator.Key(),
		record.AssetAddress.String(), record.TokenID, record.BlockHeight,
		pgtype.Timestamp{Time: record.Timestamp.UTC(), Valid: true},
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) GetRecentCreationRecords(ctx context.Context, address common.Address, limit int) ([]entity.CreationRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT contract_address, kind, creator, asset_address, token_id, block_height, created_at
		FROM settlement_creation_records
		WHERE contract_address = $1
		ORDER BY id DESC
		LIMIT $2`,
		address.String(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	var records []entity.CreationRecord
	for rows.Next() {
		var (
			contractStr, kind, creatorKey, assetStr string
			tokenID                                 uint64
			blockHeight                             int64
			createdAt                               pgtype.Timestamp
		)
		if err := rows.Scan(&contractStr, &kind, &creatorKey, &assetStr, &tokenID, &blockHeight, &createdAt); err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		contractAddress, err := common.HexToAddress(contractStr)
		if err != nil {
			return nil, errors.Wrap(err, "malformed contract address found in database")
		}
		assetAddress, err := common.HexToAddress(assetStr)
		if err != nil {
			return nil, errors.Wrap(err, "malformed asset address found in database")
		}
		creator, err := crossAddressFromKey(creatorKey)
		if err != nil {
			return nil, err
		}
		records = append(records, entity.CreationRecord{
			ContractAddress: contractAddress,
			Kind:            entity.CreationKind(kind),
			Creator:         creator,
			AssetAddress:    assetAddress,
			TokenID:         tokenID,
			BlockHeight:     blockHeight,
			Timestamp:       createdAt.Time.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return records, nil
}

func (r *Repository) PruneCreationRecords(ctx context.Context, address common.Address, keep int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM settlement_creation_records
		WHERE contract_address = $1 AND id NOT IN (
			SELECT id FROM settlement_creation_records
			WHERE contract_address = $1
			ORDER BY id DESC
			LIMIT $2
		)`,
		address.String(), keep)
	if err != nil {
		return 0, errors.Wrap(err, "error during exec")
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) CreateEventWindow(ctx context.Context, window entity.EventWindow) error {
	feePaid, err := numericFromUint128(window.FeePaid)
	if err != nil {
		return err
	}
	attributes, err := attributesToJSON(window.TokenAttributes)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO settlement_event_windows (collection_address, contract_address, host, start_timestamp, end_timestamp, fee_paid, token_image, token_attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		window.CollectionAddress.String(), window.ContractAddress.String(), window.Host.Key(),
		pgtype.Timestamp{Time: window.StartTimestamp.UTC(), Valid: true},
		pgtype.Timestamp{Time: window.EndTimestamp.UTC(), Valid: true},
		feePaid, window.TokenImage, attributes,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) GetEventWindow(ctx context.Context, collection common.Address) (*entity.EventWindow, error) {
	row := r.db.QueryRow(ctx, `
		SELECT collection_address, contract_address, host, start_timestamp, end_timestamp, fee_paid, token_image, token_attributes
		FROM settlement_event_windows
		WHERE collection_address = $1`, collection.String())

	var (
		collectionStr, contractStr, hostKey string
		startTs, endTs                      pgtype.Timestamp
		feePaid                             pgtype.Numeric
		tokenImage                          string
		attributesJSON                      []byte
	)
	err := row.Scan(&collectionStr, &contractStr, &hostKey, &startTs, &endTs, &feePaid, &tokenImage, &attributesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "event window for %s", collection)
		}
		return nil, errors.Wrap(err, "error during query")
	}

	collectionAddress, err := common.HexToAddress(collectionStr)
	if err != nil {
		return nil, errors.Wrap(err, "malformed collection address found in database")
	}
	contractAddress, err := common.HexToAddress(contractStr)
	if err != nil {
		return nil, errors.Wrap(err, "malformed contract address found in database")
	}
	host, err := crossAddressFromKey(hostKey)
	if err != nil {
		return nil, err
	}
	fee, err := uint128FromNumeric(feePaid)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse fee")
	}
	attributes, err := attributesFromJSON(attributesJSON)
	if err != nil {
		return nil, err
	}
	return &entity.EventWindow{
		CollectionAddress: collectionAddress,
		ContractAddress:   contractAddress,
		Host:              host,
		StartTimestamp:    startTs.Time.UTC(),
		EndTimestamp:      endTs.Time.UTC(),
		FeePaid:           fee,
		TokenImage:        tokenImage,
		TokenAttributes:   attributes,
	}, nil
}
