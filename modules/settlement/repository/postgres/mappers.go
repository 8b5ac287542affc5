package postgres

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sponsornet/settlement-engine/modules/settlement/entity"
	"github.com/sponsornet/settlement-engine/pkg/crossaddr"
)

func uint128FromNumeric(src pgtype.Numeric) (uint128.Uint128, error) {
	if !src.Valid {
		return uint128.Zero, nil
	}
	bytes, err := src.MarshalJSON()
	if err != nil {
		return uint128.Zero, errors.WithStack(err)
	}
	result, err := uint128.FromString(string(bytes))
	if err != nil {
		return uint128.Zero, errors.WithStack(err)
	}
	return result, nil
}

func numericFromUint128(src uint128.Uint128) (pgtype.Numeric, error) {
	var result pgtype.Numeric
	if err := result.UnmarshalJSON([]byte(src.String())); err != nil {
		return pgtype.Numeric{}, errors.WithStack(err)
	}
	return result, nil
}

func crossAddressFromKey(key string) (crossaddr.CrossAddress, error) {
	account, err := crossaddr.ParseKey(key)
	if err != nil {
		return crossaddr.CrossAddress{}, errors.Wrap(err, "malformed cross-address found in database")
	}
	return account, nil
}

func attributesFromJSON(src []byte) ([]entity.TokenAttribute, error) {
	if len(src) == 0 {
		return nil, nil
	}
	var attributes []entity.TokenAttribute
	if err := json.Unmarshal(src, &attributes); err != nil {
		return nil, errors.Wrap(err, "malformed token attributes found in database")
	}
	return attributes, nil
}

func attributesToJSON(attributes []entity.TokenAttribute) ([]byte, error) {
	if len(attributes) == 0 {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(attributes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal token attributes")
	}
	return data, nil
}
