package evm

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/xerrors"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	config "github.com/chainballot/chainballot/internal/config"
	ledger "github.com/chainballot/chainballot/internal/ledger"
	models "github.com/chainballot/chainballot/internal/models"
)

// votingSystemABI describes the deployed VotingSystem contract. Ids are
// read back from the ElectionCreated/CandidateAdded event logs.
const votingSystemABI = `[
	{"type":"function","name":"createElection","stateMutability":"nonpayable","inputs":[{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"startTime","type":"uint256"},{"name":"endTime","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"addCandidate","stateMutability":"nonpayable","inputs":[{"name":"electionId","type":"uint256"},{"name":"wallet","type":"address"},{"name":"name","type":"string"}],"outputs":[]},
	{"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"electionId","type":"uint256"},{"name":"candidateId","type":"uint256"},{"name":"voter","type":"address"}],"outputs":[]},
	{"type":"function","name":"getElectionResults","stateMutability":"view","inputs":[{"name":"electionId","type":"uint256"}],"outputs":[{"name":"candidateIds","type":"uint256[]"},{"name":"voteCounts","type":"uint256[]"}]},
	{"type":"event","name":"ElectionCreated","anonymous":false,"inputs":[{"name":"electionId","type":"uint256","indexed":false}]},
	{"type":"event","name":"CandidateAdded","anonymous":false,"inputs":[{"name":"electionId","type":"uint256","indexed":false},{"name":"candidateId","type":"uint256","indexed":false}]}
]`

type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	abi      abi.ABI
	opts     *bind.TransactOpts
	timeout  time.Duration

	//transactions from one key must be submitted in nonce order
	mutex sync.Mutex
}

func NewClient(cfg config.EthereumConfig) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindLedgerUnavailable, "failed to dial ethereum rpc", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(votingSystemABI))
	if err != nil {
		return nil, xerrors.Errorf("failed to parse contract abi: %v", err)
	}

	key, err := crypto.HexToECDSA(cfg.PrivateKey)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse ethereum private key: %v", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, cfg.ChainId)
	if err != nil {
		return nil, xerrors.Errorf("failed to build transactor: %v", err)
	}

	address := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(address, parsedABI, eth, eth, eth)

	return &Client{
		eth:      eth,
		contract: contract,
		abi:      parsedABI,
		opts:     opts,
		timeout:  cfg.ConfirmationTimeout,
	}, nil
}

func (client *Client) Backend() models.Blockchain {
	return models.BlockchainEthereum
}

func (client *Client) CreateElection(ctx context.Context, title string, description string, startUnix int64, endUnix int64) (string, error) {
	receipt, err := client.transact(ctx, "createElection",
		title, description, big.NewInt(startUnix), big.NewInt(endUnix))
	if err != nil {
		return "", err
	}

	var event struct {
		ElectionId *big.Int
	}

	if err := client.unpackEvent(&event, "ElectionCreated", receipt); err != nil {
		return "", err
	}

	return event.ElectionId.String(), nil
}

func (client *Client) AddCandidate(ctx context.Context, electionId string, identity string, displayName string) (string, error) {
	if !common.IsHexAddress(identity) {
		return "", apperrors.Newf(apperrors.KindValidation, "invalid wallet address %q", identity)
	}

	onChainElectionId, err := parseOnChainId(electionId)
	if err != nil {
		return "", err
	}

	receipt, err := client.transact(ctx, "addCandidate",
		onChainElectionId, common.HexToAddress(identity), displayName)
	if err != nil {
		return "", err
	}

	var event struct {
		ElectionId  *big.Int
		CandidateId *big.Int
	}

	if err := client.unpackEvent(&event, "CandidateAdded", receipt); err != nil {
		return "", err
	}

	return event.CandidateId.String(), nil
}

func (client *Client) CastVote(ctx context.Context, electionId string, candidateId string, voterIdentity string) (string, error) {
	if !common.IsHexAddress(voterIdentity) {
		return "", apperrors.Newf(apperrors.KindValidation, "invalid voter wallet address %q", voterIdentity)
	}

	onChainElectionId, err := parseOnChainId(electionId)
	if err != nil {
		return "", err
	}

	onChainCandidateId, err := parseOnChainId(candidateId)
	if err != nil {
		return "", err
	}

	receipt, err := client.transact(ctx, "vote",
		onChainElectionId, onChainCandidateId, common.HexToAddress(voterIdentity))
	if err != nil {
		return "", err
	}

	return receipt.TxHash.Hex(), nil
}

func (client *Client) Results(ctx context.Context, electionId string) ([]ledger.Tally, error) {
	onChainElectionId, err := parseOnChainId(electionId)
	if err != nil {
		return nil, err
	}

	var out []any
	callOpts := &bind.CallOpts{Context: ctx}

	err = client.contract.Call(callOpts, &out, "getElectionResults", onChainElectionId)
	if err != nil {
		return nil, classify("failed to read election results", err)
	}

	candidateIds := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	voteCounts := *abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int)

	if len(candidateIds) != len(voteCounts) {
		return nil, apperrors.New(apperrors.KindTransactionRejected, "contract returned mismatched result arrays")
	}

	tallies := make([]ledger.Tally, len(candidateIds))
	for idx := range candidateIds {
		tallies[idx] = ledger.Tally{
			CandidateId: candidateIds[idx].String(),
			Votes:       voteCounts[idx].Uint64(),
		}
	}

	return tallies, nil
}

// transact submits one contract method call and blocks until it is
// mined or the confirmation timeout expires.
func (client *Client) transact(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	client.mutex.Lock()
	defer client.mutex.Unlock()

	ctx, cancel := context.WithTimeout(ctx, client.timeout)
	defer cancel()

	opts := *client.opts
	opts.Context = ctx

	tx, err := client.contract.Transact(&opts, method, args...)
	if err != nil {
		return nil, classify("failed to submit "+method+" transaction", err)
	}

	receipt, err := bind.WaitMined(ctx, client.eth, tx)
	if err != nil {
		//the transaction is in flight, its outcome is unknown
		return nil, apperrors.Wrap(apperrors.KindConfirmationTimeout,
			"no confirmation for "+method+" transaction "+tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, apperrors.New(apperrors.KindTransactionRejected,
			method+" transaction "+tx.Hash().Hex()+" reverted")
	}

	return receipt, nil
}

func (client *Client) unpackEvent(out any, name string, receipt *types.Receipt) error {
	eventId := client.abi.Events[name].ID

	for _, logEntry := range receipt.Logs {
		if len(logEntry.Topics) == 0 || logEntry.Topics[0] != eventId {
			continue
		}

		if err := client.contract.UnpackLog(out, name, *logEntry); err != nil {
			return apperrors.Wrap(apperrors.KindTransactionRejected, "failed to decode "+name+" event", err)
		}

		return nil
	}

	return apperrors.New(apperrors.KindTransactionRejected, "confirmed receipt carries no "+name+" event")
}

func parseOnChainId(id string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(id, 10)
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid on-chain id %q", id)
	}

	return value, nil
}

// classify maps submission failures onto the error taxonomy. Timeouts
// stay distinct because the write may still land.
func classify(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.KindConfirmationTimeout, msg, err)
	}

	lowered := strings.ToLower(err.Error())
	if strings.Contains(lowered, "revert") || strings.Contains(lowered, "rejected") {
		return apperrors.Wrap(apperrors.KindTransactionRejected, msg, err)
	}

	return apperrors.Wrap(apperrors.KindLedgerUnavailable, msg, err)
}
