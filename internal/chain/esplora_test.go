package chain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veristamp/veristamp/internal/digest"
	"github.com/veristamp/veristamp/internal/model"
)

const testDisplayTxID = "b5582a1b5b9ccb3e8d006a5230de9bda23ff91edc794d4f56410560830b41840"

func testTxID(t *testing.T) digest.Hash {
	t.Helper()
	id, err := digest.ParseDisplayHash(testDisplayTxID)
	if err != nil {
		t.Fatalf("bad test txid: %v", err)
	}
	return id
}

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "veristamp-test",
		MaxBodyBytes: 1_000_000,
	}
}

func TestEsploraClient_FetchConfirmed(t *testing.T) {
	var sawUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUserAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/tx/" + testDisplayTxID + "/hex":
			fmt.Fprint(w, "deadbeef")
		case "/tx/" + testDisplayTxID + "/status":
			fmt.Fprint(w, `{"confirmed":true,"block_height":694521,"block_time":1628278522}`)
		case "/blocks/tip/height":
			fmt.Fprint(w, "694530")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewEsploraClient(server.URL, testHTTPConfig(), nil)
	tx, err := client.FetchTransaction(context.Background(), testTxID(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if fmt.Sprintf("%x", tx.RawBytes) != "deadbeef" {
		t.Errorf("Expected raw bytes deadbeef, got %x", tx.RawBytes)
	}
	if tx.Confirmations != 10 {
		t.Errorf("Expected tip-height+1 = 10 confirmations, got %d", tx.Confirmations)
	}
	if tx.BlockTime == nil || tx.BlockTime.Unix() != 1628278522 {
		t.Errorf("Expected block time 1628278522, got %v", tx.BlockTime)
	}
	if sawUserAgent != "veristamp-test" {
		t.Errorf("Expected configured user agent, got %q", sawUserAgent)
	}
}

func TestEsploraClient_FetchUnconfirmed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tx/" + testDisplayTxID + "/hex":
			fmt.Fprint(w, "beef")
		case "/tx/" + testDisplayTxID + "/status":
			fmt.Fprint(w, `{"confirmed":false}`)
		case "/blocks/tip/height":
			t.Error("Tip height must not be queried for unconfirmed transactions")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewEsploraClient(server.URL, testHTTPConfig(), nil)
	tx, err := client.FetchTransaction(context.Background(), testTxID(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if tx.Confirmations != 0 {
		t.Errorf("Expected 0 confirmations, got %d", tx.Confirmations)
	}
	if tx.BlockTime != nil {
		t.Errorf("Expected nil block time while unconfirmed, got %v", tx.BlockTime)
	}
}

func TestEsploraClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrUnreachable},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		client := NewEsploraClient(server.URL, testHTTPConfig(), nil)
		_, err := client.FetchTransaction(context.Background(), testTxID(t))
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		server.Close()
	}
}

func TestEsploraClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewEsploraClient(server.URL, testHTTPConfig(), nil)
	_, err := client.FetchTransaction(context.Background(), testTxID(t))
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Expected ErrUnreachable, got %v", err)
	}
}

func TestEsploraClient_ClampsReorgedTip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tx/" + testDisplayTxID + "/hex":
			fmt.Fprint(w, "beef")
		case "/tx/" + testDisplayTxID + "/status":
			fmt.Fprint(w, `{"confirmed":true,"block_height":700000,"block_time":1628278522}`)
		case "/blocks/tip/height":
			fmt.Fprint(w, "699998") // tip behind the block's own height
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewEsploraClient(server.URL, testHTTPConfig(), nil)
	tx, err := client.FetchTransaction(context.Background(), testTxID(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tx.Confirmations != 1 {
		t.Errorf("Expected confirmations clamped to 1, got %d", tx.Confirmations)
	}
}
