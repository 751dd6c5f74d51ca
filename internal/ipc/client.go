package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Signbridge.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunList returns recorded runs, most recent first.
func (c *Client) RunList(limit int) (*RunListResponse, error) {
	var resp RunListResponse
	if err := c.client.Call("Signbridge.RunList", RunListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunDescribe fetches a single run by id.
func (c *Client) RunDescribe(id string) (*RunDescribeResponse, error) {
	var resp RunDescribeResponse
	if err := c.client.Call("Signbridge.RunDescribe", RunDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunCancel aborts the active run.
func (c *Client) RunCancel(id string) (*RunCancelResponse, error) {
	var resp RunCancelResponse
	if err := c.client.Call("Signbridge.RunCancel", RunCancelRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunRetry resumes the active run at its failed stage.
func (c *Client) RunRetry(id string) (*RunRetryResponse, error) {
	var resp RunRetryResponse
	if err := c.client.Call("Signbridge.RunRetry", RunRetryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunClear removes recorded runs from the ledger.
func (c *Client) RunClear(finishedOnly bool) (*RunClearResponse, error) {
	var resp RunClearResponse
	if err := c.client.Call("Signbridge.RunClear", RunClearRequest{FinishedOnly: finishedOnly}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads daemon log lines starting at the given offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Signbridge.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
