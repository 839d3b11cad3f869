package ethabi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const jsonRpcVersion = "2.0"

/*
Common interface implemented by RPC transports. Obtained via "Dial" and passed
to the RPC functions in this package.
*/
type Trans interface {
	/**
	Should make an RPC request and decode the response body into `out`, which
	must be a pointer. Returns a request error or a decoding error.
	*/
	Call(ctx context.Context, out interface{}, method string, params ...interface{}) error

	/**
	Should register a subscription and block until it's finished, sending values
	over the provided channel and returning the error that interrupted it, if
	any. Before returning, should always close the output channel and, if
	possible, send an unsubscribe command to the server.

	If the channel is full, new values may be dropped. The caller is responsible
	for ensuring the channel has enough space.
	*/
	Subscribe(ctx context.Context, out chan []byte, params ...interface{}) error
}

/*
Chooses the appropriate transport for the given URL. The optional logger is
used for background logging, if that's relevant for the chosen transport.
*/
func Dial(ctx context.Context, rpcPath string, logger *zerolog.Logger) (Trans, error) {
	rpcUrl, err := url.Parse(rpcPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if rpcUrl.Scheme == "ws" || rpcUrl.Scheme == "wss" {
		return DialWs(ctx, *rpcUrl, logger)
	}

	if rpcUrl.Scheme == "http" || rpcUrl.Scheme == "https" {
		return HttpTrans{Url: *rpcUrl}, nil
	}

	return nil, errors.Errorf("unsupported RPC path: %v", rpcPath)
}

/*
Stateless HTTP transport. Doesn't support subscriptions. Uses
"http.DefaultClient" unless ".Client" is set.
*/
type HttpTrans struct {
	Url    url.URL
	Client *http.Client
}

func (self HttpTrans) client() *http.Client {
	if self.Client == nil {
		return http.DefaultClient
	}
	return self.Client
}

// Makes an RPC call.
func (self HttpTrans) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	var body bytes.Buffer
	err := json.NewEncoder(&body).Encode(rpcRequest{
		Jsonrpc: jsonRpcVersion,
		Id:      randomId(),
		Method:  method,
		Params:  rpcParams(params),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, self.Url.String(), &body)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := self.client().Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		bytes, _ := io.ReadAll(res.Body)
		return errors.Errorf("RPC error: %s\n%s", res.Status, bytes)
	}

	rpcRes := rpcResponse{Result: out}
	err = json.NewDecoder(res.Body).Decode(&rpcRes)
	if err != nil {
		return errors.Wrap(err, "failed to decode RPC response")
	}
	// Note: `error((*RpcError)(nil)) != nil` !!!
	if rpcRes.Error != nil {
		return errors.WithStack(rpcRes.Error)
	}
	return nil
}

// Not implemented for the HTTP transport. Always returns an error.
func (self HttpTrans) Subscribe(_ context.Context, out chan []byte, _ ...interface{}) error {
	close(out)
	return errors.New("HTTP RPC transport doesn't support streaming")
}

// JSON RPC requires "params" to be an array, even when empty.
func rpcParams(params []interface{}) []interface{} {
	if params == nil {
		return []interface{}{}
	}
	return params
}

/*
Stateful websocket transport. Supports RPC calls and subscriptions. Doesn't
reconnect: when the connection fails, pending calls and subscriptions fail,
and later calls fail immediately. Dial a new transport to recover. Call
".Close" to release the connection.
*/
type WsTrans struct {
	Url    url.URL
	Logger *zerolog.Logger

	// Unavoidable bottleneck
	writeLock sync.Mutex
	conn      *websocket.Conn

	subLock sync.Mutex
	subs    map[string]chan either
	pending map[string]chan either // by "eth_subscribe" request id

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

/*
Establishes a websocket connection to the RPC node at the given URL and starts
a background receive loop, which runs until ".Close" or a connection failure.
*/
func DialWs(ctx context.Context, url url.URL, logger *zerolog.Logger) (*WsTrans, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url.String(), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	transport := &WsTrans{
		Url:     url,
		Logger:  logger,
		conn:    conn,
		subs:    map[string]chan either{},
		pending: map[string]chan either{},
		done:    make(chan struct{}),
	}

	go transport.run()
	return transport, nil
}

func (self *WsTrans) run() {
	err := self.receiveLoop()
	self.shutdown(errors.Wrapf(err, "disconnected from RPC server %v", self.Url.String()))
}

/*
Closes the connection, failing pending calls and subscriptions. Safe to call
multiple times and concurrently with other methods.
*/
func (self *WsTrans) Close() error {
	self.shutdown(errors.New("RPC transport closed"))
	return nil
}

// Closed once the transport stops, either via ".Close" or due to a failure.
func (self *WsTrans) Done() <-chan struct{} { return self.done }

// Error that stopped the transport. Nil while the transport is running.
func (self *WsTrans) Err() error {
	select {
	case <-self.done:
		return self.closeErr
	default:
		return nil
	}
}

func (self *WsTrans) shutdown(err error) {
	self.closeOnce.Do(func() {
		self.closeErr = err
		close(self.done)

		self.writeLock.Lock()
		_ = self.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		self.writeLock.Unlock()
		self.conn.Close()

		self.logger().Debug().Err(err).Str("url", self.Url.String()).Msg("websocket transport stopped")
		self.clearSubs(err)
	})
}

func (self *WsTrans) logger() *zerolog.Logger {
	if self.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return self.Logger
}

func (self *WsTrans) receiveLoop() error {
	/**
	Note: we receive and unmarshal separately. A receiving failure indicates
	a disconnect. An unmarshaling error indicates a malformed message, but
	not necessarily a connection problem.
	*/
	for {
		_, payload, err := self.conn.ReadMessage()
		if err != nil {
			return err
		}

		var head struct{ Id string }
		err = json.Unmarshal(payload, &head)
		if err != nil {
			self.logger().Warn().Err(err).Str("url", self.Url.String()).Msg("failed to decode RPC message")
			continue
		}

		if len(head.Id) != 0 {
			var body json.RawMessage
			res := rpcResponse{Result: &body}
			err = json.Unmarshal(payload, &res)
			if err != nil {
				self.logger().Warn().Err(err).Str("url", self.Url.String()).
					Msg("failed to decode RPC message as a response")
				continue
			}

			// Note: `error((*RpcError)(nil)) != nil` !!!
			if res.Error != nil {
				err = errors.WithStack(res.Error)
			}

			self.dispatchResponse(head.Id, []byte(body), err)
			continue
		}

		// When ID is missing, assume it's a notification:
		// https://www.jsonrpc.org/specification#notification
		var notification rpcNotification
		err = json.Unmarshal(payload, &notification)
		if err != nil {
			self.logger().Warn().Err(err).Str("url", self.Url.String()).
				Msg("failed to decode RPC message as a notification")
			continue
		}
		self.dispatchToSub(notification.Params.Subscription, notification.Params.Result, nil)
	}
}

// Makes an RPC call.
func (self *WsTrans) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	return self.call(ctx, randomId(), out, method, params...)
}

func (self *WsTrans) call(ctx context.Context, id string, out interface{}, method string, params ...interface{}) error {
	sub := make(chan either, 1)
	err := self.registerSub(id, sub)
	if err != nil {
		return err
	}
	defer self.unregisterSub(id)

	err = self.send(id, method, params...)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case either, ok := <-sub:
		if !ok {
			return self.Err()
		}
		if either.err != nil {
			return either.err
		}
		if either.val == nil || out == nil {
			return nil
		}
		err := json.Unmarshal(either.val, out)
		return errors.WithStack(err)
	}
}

func (self *WsTrans) send(id string, method string, params ...interface{}) error {
	self.writeLock.Lock()
	defer self.writeLock.Unlock()

	if err := self.Err(); err != nil {
		return err
	}

	err := self.conn.WriteJSON(rpcRequest{
		Jsonrpc: jsonRpcVersion,
		Id:      id,
		Method:  method,
		Params:  rpcParams(params),
	})
	return errors.WithStack(err)
}

/*
Creates a subscription with the given params, sending raw messages over the
provided channel. The caller is expected to handle decoding on their own.

See https://geth.ethereum.org/docs/interacting-with-geth/rpc/pubsub for details
on the Ethereum subscriptions API.

Returns an error when the context is canceled, or when the connection is
interrupted. Does NOT automatically resubscribe.
*/
func (self *WsTrans) Subscribe(ctx context.Context, out chan []byte, params ...interface{}) error {
	defer close(out)

	/**
	The receive loop registers "sub" under the subscription id while handling
	the "eth_subscribe" response, before reading any further messages.
	Otherwise notifications sent right after the response could be dropped.
	*/
	id := randomId()
	sub := make(chan either, cap(out)+1)
	err := self.registerPending(id, sub)
	if err != nil {
		return err
	}

	var subId string
	err = self.call(ctx, id, &subId, "eth_subscribe", params...)
	self.unregisterPending(id)
	if err != nil {
		return err
	}
	if subId == "" {
		return errors.New("failed to subscribe: received empty subscription ID")
	}
	defer func() {
		go self.send(randomId(), "eth_unsubscribe", subId)
	}()
	defer self.unregisterSub(subId)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case either, ok := <-sub:
			if !ok {
				return self.Err()
			}
			if either.err != nil {
				return either.err
			}
			select {
			case out <- either.val:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (self *WsTrans) registerSub(id string, sub chan either) error {
	self.subLock.Lock()
	defer self.subLock.Unlock()

	// Checked under the lock so that "clearSubs" can't miss this subscriber.
	if err := self.Err(); err != nil {
		return err
	}
	self.subs[id] = sub
	return nil
}

func (self *WsTrans) unregisterSub(id string) {
	self.subLock.Lock()
	delete(self.subs, id)
	self.subLock.Unlock()
}

func (self *WsTrans) registerPending(id string, sub chan either) error {
	self.subLock.Lock()
	defer self.subLock.Unlock()

	if err := self.Err(); err != nil {
		return err
	}
	self.pending[id] = sub
	return nil
}

func (self *WsTrans) unregisterPending(id string) {
	self.subLock.Lock()
	delete(self.pending, id)
	self.subLock.Unlock()
}

// Responses to "eth_subscribe" also activate the pending subscriber.
func (self *WsTrans) dispatchResponse(id string, val []byte, err error) {
	self.subLock.Lock()
	sub := self.pending[id]
	if sub != nil {
		delete(self.pending, id)
		var subId string
		if err == nil && json.Unmarshal(val, &subId) == nil && subId != "" {
			self.subs[subId] = sub
		}
	}
	self.subLock.Unlock()

	self.dispatchToSub(id, val, err)
}

func (self *WsTrans) dispatchToSub(id string, val []byte, err error) {
	self.subLock.Lock()
	defer self.subLock.Unlock()

	sub := self.subs[id]
	if sub != nil {
		select {
		case sub <- either{val: val, err: err}:
		default:
			self.logger().Warn().Str("subscription", id).Msg("dropped RPC message: subscriber is full")
		}
	}
}

func (self *WsTrans) clearSubs(err error) {
	self.subLock.Lock()
	defer self.subLock.Unlock()

	for _, sub := range self.subs {
		if err != nil {
			select {
			case sub <- either{err: err}:
			default:
			}
		}
		close(sub)
	}
	self.subs = map[string]chan either{}
	self.pending = map[string]chan either{}
}

var (
	rnd     = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndLock sync.Mutex
)

// Tens of times faster than "crypto/rand". Ids only need to be unique per connection.
func randomId() string {
	var buf Word
	rndLock.Lock()
	rnd.Read(buf[:])
	rndLock.Unlock()
	return buf.String()
}
