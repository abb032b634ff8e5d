package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/xerrors"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	clock "github.com/chainballot/chainballot/internal/clock"
	config "github.com/chainballot/chainballot/internal/config"
	hashutil "github.com/chainballot/chainballot/internal/hashutil"
	ledger "github.com/chainballot/chainballot/internal/ledger"
	models "github.com/chainballot/chainballot/internal/models"
)

// payloadPattern matches the payload the peer CLI prints after a
// successful invoke, e.g. `... result: status:200 payload:"e42"`.
var payloadPattern = regexp.MustCompile(`payload:"((?:[^"\\]|\\.)*)"`)

// Client drives a Fabric network through the peer CLI, the same
// integration surface the chaincode was deployed with. Invocations are
// synchronous, the CLI returns once the transaction is committed.
type Client struct {
	cfg   config.FabricConfig
	clock clock.Clock

	//runCommand is swapped in tests to avoid a live network
	runCommand func(ctx context.Context, name string, env []string, args ...string) ([]byte, error)
}

func NewClient(cfg config.FabricConfig, clk clock.Clock) *Client {
	return &Client{
		cfg:        cfg,
		clock:      clk,
		runCommand: runPeerCommand,
	}
}

// SetRunCommand replaces the subprocess runner. Tests use it to script
// peer CLI behavior without a live network.
func (client *Client) SetRunCommand(run func(ctx context.Context, name string, env []string, args ...string) ([]byte, error)) {
	client.runCommand = run
}

func (client *Client) Backend() models.Blockchain {
	return models.BlockchainHyperledger
}

func (client *Client) CreateElection(ctx context.Context, title string, description string, startUnix int64, endUnix int64) (string, error) {
	payload, err := client.invoke(ctx, "CreateElection",
		title, description, strconv.FormatInt(startUnix, 10), strconv.FormatInt(endUnix, 10))
	if err != nil {
		return "", err
	}

	if payload == "" {
		return "", apperrors.New(apperrors.KindTransactionRejected,
			"chaincode returned no election id")
	}

	return payload, nil
}

func (client *Client) AddCandidate(ctx context.Context, electionId string, identity string, displayName string) (string, error) {
	payload, err := client.invoke(ctx, "AddCandidate", electionId, identity, displayName)
	if err != nil {
		return "", err
	}

	if payload == "" {
		return "", apperrors.New(apperrors.KindTransactionRejected,
			"chaincode returned no candidate id")
	}

	return payload, nil
}

// CastVote submits the vote and synthesizes the proof-of-cast id. The
// peer CLI does not hand back a transaction hash the way an EVM node
// does, so the proof is a hash over the vote coordinates and a
// monotonic timestamp, giving the tx_hash column one uniform and
// always-unique representation across backends.
func (client *Client) CastVote(ctx context.Context, electionId string, candidateId string, voterIdentity string) (string, error) {
	_, err := client.invoke(ctx, "CastVote", electionId, candidateId, voterIdentity)
	if err != nil {
		return "", err
	}

	return SynthesizeTxId(electionId, candidateId, voterIdentity, client.clock.Now()), nil
}

func (client *Client) Results(ctx context.Context, electionId string) ([]ledger.Tally, error) {
	output, err := client.query(ctx, "GetResults", electionId)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		CandidateId string `json:"candidate_id"`
		Votes       uint64 `json:"votes"`
	}

	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransactionRejected,
			"failed to decode chaincode results", err)
	}

	tallies := make([]ledger.Tally, len(raw))
	for idx, entry := range raw {
		tallies[idx] = ledger.Tally{CandidateId: entry.CandidateId, Votes: entry.Votes}
	}

	return tallies, nil
}

func SynthesizeTxId(electionId string, candidateId string, voterIdentity string, at time.Time) string {
	seed := fmt.Sprintf("%s|%s|%s|%d", electionId, candidateId, voterIdentity, at.UnixNano())
	return hashutil.HexHashBytes([]byte(seed))
}

func (client *Client) invoke(ctx context.Context, function string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, client.cfg.ConfirmationTimeout)
	defer cancel()

	cliArgs := []string{
		"chaincode", "invoke",
		"-o", client.cfg.OrdererAddress,
		"--ordererTLSHostnameOverride", client.cfg.OrdererTlsHostname,
		"--tls",
		"--cafile", client.cfg.OrdererTlsCaFile,
		"-C", client.cfg.Channel,
		"-n", client.cfg.Chaincode,
		"--peerAddresses", client.cfg.PeerAddress,
		"--tlsRootCertFiles", client.cfg.TlsRootCertFile,
		"--waitForEvent",
		"-c", chaincodeArgs(function, args),
	}

	output, err := client.runCommand(ctx, client.cfg.PeerBinary, client.environment(), cliArgs...)
	if err != nil {
		return "", classifyCommandError(ctx, function, err)
	}

	return ParseInvokePayload(output), nil
}

func (client *Client) query(ctx context.Context, function string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, client.cfg.ConfirmationTimeout)
	defer cancel()

	cliArgs := []string{
		"chaincode", "query",
		"-C", client.cfg.Channel,
		"-n", client.cfg.Chaincode,
		"-c", chaincodeArgs(function, args),
	}

	output, err := client.runCommand(ctx, client.cfg.PeerBinary, client.environment(), cliArgs...)
	if err != nil {
		return nil, classifyCommandError(ctx, function, err)
	}

	return bytes.TrimSpace(output), nil
}

func (client *Client) environment() []string {
	return []string{
		"FABRIC_CFG_PATH=" + client.cfg.FabricCfgPath,
		"CORE_PEER_TLS_ENABLED=true",
		"CORE_PEER_LOCALMSPID=" + client.cfg.MspId,
		"CORE_PEER_TLS_ROOTCERT_FILE=" + client.cfg.TlsRootCertFile,
		"CORE_PEER_MSPCONFIGPATH=" + client.cfg.MspConfigPath,
		"CORE_PEER_ADDRESS=" + client.cfg.PeerAddress,
	}
}

func chaincodeArgs(function string, args []string) string {
	if args == nil {
		args = []string{}
	}

	payload, _ := json.Marshal(map[string]any{"function": function, "Args": args})
	return string(payload)
}

// ParseInvokePayload extracts the chaincode return value from the peer
// CLI output, empty when the invoke printed none.
func ParseInvokePayload(output []byte) string {
	match := payloadPattern.FindSubmatch(output)
	if match == nil {
		return ""
	}

	unquoted, err := strconv.Unquote(`"` + string(match[1]) + `"`)
	if err != nil {
		return string(match[1])
	}

	return unquoted
}

func runPeerCommand(ctx context.Context, name string, env []string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(cmd.Environ(), env...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, xerrors.Errorf("peer command failed: %s: %w", bytes.TrimSpace(output), err)
	}

	return output, nil
}

func classifyCommandError(ctx context.Context, function string, err error) error {
	if ctx.Err() != nil {
		//the invoke may have committed after the deadline, outcome unknown
		return apperrors.Wrap(apperrors.KindConfirmationTimeout,
			"no confirmation for chaincode "+function, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return apperrors.Wrap(apperrors.KindTransactionRejected,
			"chaincode "+function+" rejected", err)
	}

	return apperrors.Wrap(apperrors.KindLedgerUnavailable,
		"failed to reach fabric network for "+function, err)
}
