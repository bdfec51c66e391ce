package rpc

import (
	"context"
	"fmt"
	"time"

	"evmwallet/pkg/models"
)

// ProbeEndpoint dials url, asks for its chain ID and measures the round trip.
// It never rotates a pool.
func (c *Client) ProbeEndpoint(ctx context.Context, url string) models.RPCResult {
	res := models.RPCResult{URL: url}
	start := time.Now()

	pctx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	b, err := c.dial(pctx, url)
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		return res
	}
	defer b.Close()

	id, err := b.ChainID(pctx)
	if err != nil {
		res.Status = "error"
		res.Error = fmt.Sprintf("Failed to get ChainID: %v", err)
		return res
	}
	res.Status = "ok"
	res.ChainID = id.Int64()
	res.Latency = time.Since(start)
	return res
}
