package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"

	"github.com/vultisig/solsend/internal/transfer"
)

var (
	host       = flag.String("host", "http://localhost:8080", "solsend server host")
	flatPreset = flag.String("preset", "", "preset to execute")
	amount     = flag.String("amount", "0.001", "amount in SOL for the send preset")
)

var presets = map[string]func(context.Context) error{
	"state":      state,
	"connect":    connect,
	"disconnect": disconnect,
	"fee":        fee,
	"send":       send,
}

func main() {
	flag.Parse()

	if *flatPreset == "" {
		panic("preset is required")
	}
	run, ok := presets[*flatPreset]
	if !ok {
		panic(fmt.Sprintf("unknown preset: %s", *flatPreset))
	}

	err := run(context.Background())
	if err != nil {
		panic(err)
	}
}

func call(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, *host+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make http call: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", method, path, res.StatusCode, resBody)
	}

	err = json.Unmarshal(resBody, out)
	if err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func printView(v transfer.View) {
	fmt.Printf("wallet:       %s (connected=%t)\n", v.Identity, v.Connected)
	fmt.Printf("balance:      %s\n", v.Balance)
	fmt.Printf("network fee:  %s\n", v.NetworkFee)
	fmt.Printf("confirmation: %s\n", v.ConfirmationTime)
	fmt.Printf("amount:       %s\n", v.Amount)
	if v.Notice != nil {
		fmt.Printf("notice:       %+v\n", *v.Notice)
	}
}

func state(ctx context.Context) error {
	var v transfer.View
	err := call(ctx, http.MethodGet, "/api/v1/state", nil, &v)
	if err != nil {
		return err
	}
	printView(v)
	return nil
}

func connect(ctx context.Context) error {
	var v transfer.View
	err := call(ctx, http.MethodPost, "/api/v1/wallet/connect", nil, &v)
	if err != nil {
		return err
	}
	printView(v)
	return nil
}

func disconnect(ctx context.Context) error {
	var v transfer.View
	err := call(ctx, http.MethodPost, "/api/v1/wallet/disconnect", nil, &v)
	if err != nil {
		return err
	}
	printView(v)
	return nil
}

func fee(ctx context.Context) error {
	var res struct {
		Lamports uint64 `json:"lamports"`
	}
	err := call(ctx, http.MethodPost, "/api/v1/fee", nil, &res)
	if err != nil {
		return err
	}
	fmt.Printf("fee: %d lamports\n", res.Lamports)
	return nil
}

func send(ctx context.Context) error {
	var v transfer.View
	err := call(ctx, http.MethodPut, "/api/v1/amount", map[string]string{"amount": *amount}, &v)
	if err != nil {
		return fmt.Errorf("failed to set amount: %w", err)
	}

	var res struct {
		Signature string        `json:"signature"`
		View      transfer.View `json:"view"`
	}
	err = call(ctx, http.MethodPost, "/api/v1/send", nil, &res)
	if err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}
	fmt.Printf("signature: %s\n", res.Signature)
	printView(res.View)
	return nil
}
