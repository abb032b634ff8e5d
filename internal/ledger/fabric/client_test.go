package fabric_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chainballot/chainballot/internal/apperrors"
	"github.com/chainballot/chainballot/internal/clock"
	"github.com/chainballot/chainballot/internal/config"
	"github.com/chainballot/chainballot/internal/ledger/fabric"
)

func getTestConfig() config.FabricConfig {
	return config.FabricConfig{
		Enabled:             true,
		PeerBinary:          "peer",
		Channel:             "votingchannel",
		Chaincode:           "voting",
		ConfirmationTimeout: time.Second,
	}
}

func TestParseInvokePayload(t *testing.T) {
	output := []byte(`2026-03-01 12:00:00.000 UTC [chaincodeCmd] chaincodeInvokeOrQuery -> INFO 001 Chaincode invoke successful. result: status:200 payload:"e42"`)

	payload := fabric.ParseInvokePayload(output)
	if payload != "e42" {
		t.Fatalf("expected payload e42, got %q", payload)
	}
}

func TestParseInvokePayloadEscaped(t *testing.T) {
	output := []byte(`result: status:200 payload:"a\"b"`)

	payload := fabric.ParseInvokePayload(output)
	if payload != `a"b` {
		t.Fatalf("expected unescaped payload, got %q", payload)
	}
}

func TestParseInvokePayloadMissing(t *testing.T) {
	output := []byte(`result: status:200`)

	if payload := fabric.ParseInvokePayload(output); payload != "" {
		t.Fatalf("expected empty payload, got %q", payload)
	}
}

func TestSynthesizeTxIdDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := fabric.SynthesizeTxId("e1", "c1", "voter-7", at)
	second := fabric.SynthesizeTxId("e1", "c1", "voter-7", at)

	if first != second {
		t.Fatalf("same inputs produced different tx ids")
	}

	if len(first) != 64 {
		t.Fatalf("tx id is not a hex sha256: %q", first)
	}
}

func TestSynthesizeTxIdUniquePerInstant(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := fabric.SynthesizeTxId("e1", "c1", "voter-7", at)
	second := fabric.SynthesizeTxId("e1", "c1", "voter-7", at.Add(time.Nanosecond))

	if first == second {
		t.Fatalf("different instants produced the same tx id")
	}
}

func TestCreateElectionReadsPayload(t *testing.T) {
	client := fabric.NewClient(getTestConfig(), &clock.Fixed{Time: time.Now()})
	client.SetRunCommand(func(ctx context.Context, name string, env []string, args ...string) ([]byte, error) {
		return []byte(`result: status:200 payload:"e7"`), nil
	})

	onChainId, err := client.CreateElection(context.Background(), "title", "desc", 1, 2)
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}

	if onChainId != "e7" {
		t.Fatalf("expected on-chain id e7, got %q", onChainId)
	}
}

func TestCreateElectionEmptyPayloadRejected(t *testing.T) {
	client := fabric.NewClient(getTestConfig(), &clock.Fixed{Time: time.Now()})
	client.SetRunCommand(func(ctx context.Context, name string, env []string, args ...string) ([]byte, error) {
		return []byte(`result: status:200`), nil
	})

	_, err := client.CreateElection(context.Background(), "title", "desc", 1, 2)
	if !apperrors.IsKind(err, apperrors.KindTransactionRejected) {
		t.Fatalf("expected transaction rejected, got %v", err)
	}
}

func TestCastVoteSynthesizesTxId(t *testing.T) {
	fixed := &clock.Fixed{Time: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	client := fabric.NewClient(getTestConfig(), fixed)
	client.SetRunCommand(func(ctx context.Context, name string, env []string, args ...string) ([]byte, error) {
		return []byte(`result: status:200`), nil
	})

	txHash, err := client.CastVote(context.Background(), "e1", "c1", "9")
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}

	expected := fabric.SynthesizeTxId("e1", "c1", "9", fixed.Time)
	if txHash != expected {
		t.Fatalf("expected synthesized id %s, got %s", expected, txHash)
	}
}

func TestInvokeTimeoutIsAmbiguous(t *testing.T) {
	cfg := getTestConfig()
	cfg.ConfirmationTimeout = 10 * time.Millisecond

	client := fabric.NewClient(cfg, &clock.Fixed{Time: time.Now()})
	client.SetRunCommand(func(ctx context.Context, name string, env []string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := client.CastVote(context.Background(), "e1", "c1", "9")
	if !apperrors.IsKind(err, apperrors.KindConfirmationTimeout) {
		t.Fatalf("expected confirmation timeout, got %v", err)
	}

	if !apperrors.Ambiguous(err) {
		t.Fatalf("timeout not reported as ambiguous")
	}
}

func TestInvokeUnreachablePeerUnavailable(t *testing.T) {
	client := fabric.NewClient(getTestConfig(), &clock.Fixed{Time: time.Now()})
	client.SetRunCommand(func(ctx context.Context, name string, env []string, args ...string) ([]byte, error) {
		return nil, errors.New("peer not installed")
	})

	_, err := client.CastVote(context.Background(), "e1", "c1", "9")
	if !apperrors.IsKind(err, apperrors.KindLedgerUnavailable) {
		t.Fatalf("expected ledger unavailable, got %v", err)
	}
}

func TestResultsDecoded(t *testing.T) {
	client := fabric.NewClient(getTestConfig(), &clock.Fixed{Time: time.Now()})
	client.SetRunCommand(func(ctx context.Context, name string, env []string, args ...string) ([]byte, error) {
		return []byte(`[{"candidate_id":"c1","votes":3},{"candidate_id":"c2","votes":1}]`), nil
	})

	tallies, err := client.Results(context.Background(), "e1")
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}

	if len(tallies) != 2 || tallies[0].CandidateId != "c1" || tallies[0].Votes != 3 {
		t.Fatalf("unexpected tallies: %+v", tallies)
	}
}
