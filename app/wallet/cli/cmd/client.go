package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// client talks to the public API of a node. It satisfies wallet.Submitter so
// a wallet can send money to a remote ledger.
type client struct {
	url  string
	http *http.Client
}

func newClient(url string) *client {
	return &client{
		url:  url,
		http: http.DefaultClient,
	}
}

// Submit posts the signed transaction and returns the committed block after
// checking its hash.
func (c *client) Submit(ctx context.Context, tx database.Tx, publicKey string, sig []byte) (database.Block, error) {
	submit := struct {
		Tx        database.Tx `json:"tx"`
		PublicKey string      `json:"public_key"`
		Signature string      `json:"signature"`
	}{
		Tx:        tx,
		PublicKey: publicKey,
		Signature: signature.SignatureString(sig),
	}

	data, err := json.Marshal(submit)
	if err != nil {
		return database.Block{}, err
	}

	var bd database.BlockData
	if err := c.do(ctx, http.MethodPost, "/v1/tx/submit", bytes.NewReader(data), http.StatusCreated, &bd); err != nil {
		return database.Block{}, err
	}

	return database.ToBlock(bd)
}

// Balance returns the balance of the identity.
func (c *client) Balance(ctx context.Context, identity string) (float64, error) {
	var resp struct {
		Balances []struct {
			Identity string  `json:"identity"`
			Balance  float64 `json:"balance"`
		} `json:"balances"`
	}

	if err := c.do(ctx, http.MethodGet, "/v1/balances/list/"+identity, nil, http.StatusOK, &resp); err != nil {
		return 0, err
	}

	for _, bal := range resp.Balances {
		if bal.Identity == identity {
			return bal.Balance, nil
		}
	}

	return 0, nil
}

func (c *client) do(ctx context.Context, method string, path string, body *bytes.Reader, status int, v any) error {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.url+path, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.url+path, body)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != status {
		var er errs.Response
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, er.Error)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
