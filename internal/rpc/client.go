package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"nursehub-api/internal/model"
)

// Client calls the admin service. Login stores the session token for the
// calls that follow.
type Client struct {
	conn  grpc.ClientConnInterface
	token string
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// SetToken reuses a token obtained elsewhere.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) invoke(ctx context.Context, method string, req []byte) ([]byte, error) {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	resp := &rawMsg{}
	err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, &rawMsg{data: req}, resp, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		return nil, err
	}
	return resp.data, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (time.Time, error) {
	var req []byte
	req = appendString(req, 1, username)
	req = appendString(req, 2, password)
	out, err := c.invoke(ctx, "Login", req)
	if err != nil {
		return time.Time{}, err
	}
	r, err := parseLoginReply(out)
	if err != nil {
		return time.Time{}, err
	}
	c.token = r.Token
	return r.ExpiresAt, nil
}

// List returns appointments newest first; an empty status lists all.
func (c *Client) List(ctx context.Context, status string) ([]model.Appointment, error) {
	out, err := c.invoke(ctx, "ListAppointments", appendString(nil, 1, status))
	if err != nil {
		return nil, err
	}
	return parseList(out)
}

func (c *Client) Get(ctx context.Context, id string) (*model.Appointment, error) {
	out, err := c.invoke(ctx, "GetAppointment", appendString(nil, 1, id))
	if err != nil {
		return nil, err
	}
	return appointmentField(out)
}

func (c *Client) UpdateStatus(ctx context.Context, id string, st model.Status, reason string) (*model.Appointment, error) {
	var req []byte
	req = appendString(req, 1, id)
	req = appendString(req, 2, string(st))
	req = appendString(req, 3, reason)
	out, err := c.invoke(ctx, "UpdateStatus", req)
	if err != nil {
		return nil, err
	}
	return appointmentField(out)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.invoke(ctx, "DeleteAppointment", appendString(nil, 1, id))
	return err
}

func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	out, err := c.invoke(ctx, "Stats", nil)
	if err != nil {
		return model.Stats{}, err
	}
	return parseStats(out)
}
