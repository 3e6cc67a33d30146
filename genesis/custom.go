// Copyright (c) 2026 The Agora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/agoralabs/agora/agora"
	"github.com/agoralabs/agora/state"
)

// CustomGenesis is a user-provided genesis config.
type CustomGenesis struct {
	Name     string          `yaml:"name"`
	Accounts []AccountConfig `yaml:"accounts"`
	Params   ParamsConfig    `yaml:"params"`
}

// AccountConfig funds one account at genesis.
type AccountConfig struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// ParamsConfig is the initial protocol parameter set. Absent values
// keep the built-in defaults; executor is mandatory.
type ParamsConfig struct {
	MinStake        string `yaml:"minStake"`
	MaxStake        string `yaml:"maxStake"`
	MinTaskReward   string `yaml:"minTaskReward"`
	MaxTaskReward   string `yaml:"maxTaskReward"`
	ProtocolFeeRate string `yaml:"protocolFeeRate"`
	FeeRecipient    string `yaml:"feeRecipient"`
	Executor        string `yaml:"executor"`
}

// LoadCustomGenesis decodes a YAML genesis config.
func LoadCustomGenesis(r io.Reader) (*CustomGenesis, error) {
	var gen CustomGenesis
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis config")
	}
	return &gen, nil
}

// NewCustomNet creates a genesis from a custom config.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	cfg, err := resolveParams(&gen.Params)
	if err != nil {
		return nil, err
	}

	type funded struct {
		addr    agora.Address
		balance *big.Int
	}
	accounts := make([]funded, 0, len(gen.Accounts))
	for _, a := range gen.Accounts {
		addr, err := agora.ParseAddress(a.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "account %s", a.Address)
		}
		balance, err := parseAmount(a.Balance)
		if err != nil {
			return nil, errors.Wrapf(err, "account %s: balance", a.Address)
		}
		if balance == nil || balance.Sign() < 1 {
			return nil, errors.Errorf("account %s: balance must be a positive integer", a.Address)
		}
		accounts = append(accounts, funded{addr, balance})
	}

	id := gen.Name
	if id == "" {
		id = "customnet"
	}
	return &Genesis{
		id: id,
		seedState: func(st *state.State) error {
			for _, a := range accounts {
				if err := st.SetBalance(a.addr, a.balance); err != nil {
					return err
				}
			}
			return seedParams(st, cfg)
		},
	}, nil
}

func resolveParams(cfg *ParamsConfig) (*paramsConfig, error) {
	resolved := &paramsConfig{}

	amount := func(field, s string, dst **big.Int) error {
		v, err := parseAmount(s)
		if err != nil {
			return errors.Wrap(err, field)
		}
		*dst = v
		return nil
	}
	if err := amount("minStake", cfg.MinStake, &resolved.minStake); err != nil {
		return nil, err
	}
	if err := amount("maxStake", cfg.MaxStake, &resolved.maxStake); err != nil {
		return nil, err
	}
	if err := amount("minTaskReward", cfg.MinTaskReward, &resolved.minTaskReward); err != nil {
		return nil, err
	}
	if err := amount("maxTaskReward", cfg.MaxTaskReward, &resolved.maxTaskReward); err != nil {
		return nil, err
	}
	if err := amount("protocolFeeRate", cfg.ProtocolFeeRate, &resolved.protocolFeeRate); err != nil {
		return nil, err
	}
	if resolved.protocolFeeRate != nil && resolved.protocolFeeRate.Cmp(new(big.Int).SetUint64(agora.FeeRateDenominator)) > 0 {
		return nil, errors.Errorf("protocolFeeRate exceeds %d basis points", agora.FeeRateDenominator)
	}

	if cfg.FeeRecipient != "" {
		addr, err := agora.ParseAddress(cfg.FeeRecipient)
		if err != nil {
			return nil, errors.Wrap(err, "feeRecipient")
		}
		resolved.feeRecipient = addr
	}
	if cfg.Executor == "" {
		return nil, errors.New("params: executor must be set")
	}
	executor, err := agora.ParseAddress(cfg.Executor)
	if err != nil {
		return nil, errors.Wrap(err, "executor")
	}
	resolved.executor = executor
	return resolved, nil
}

// parseAmount accepts a decimal or 0x-prefixed hex integer; an empty
// string means "keep the default" and decodes to nil.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	if !agora.IsValidAmount(v) {
		return nil, errors.Errorf("amount %q out of range", s)
	}
	return v, nil
}
