// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package aggregator

import (
	"crypto/rand"
	"encoding/binary"
	"strings"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/blockdigest"
	"github.com/lumen-rollup/lumend/fault"
	"github.com/lumen-rollup/lumend/util"
)

const (
	identifierSize = 32

	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 60 * time.Second
)

// Client - REQ connection to one aggregator endpoint
type Client struct {
	sync.Mutex

	log       *logger.L
	chainName string
	address   string
	v6        bool
	timeout   time.Duration
	socket    *zmq.Socket
}

// NewClient - create a client for one aggregator connect string
//
// the connection itself is opened lazily on the first request
func NewClient(chainName string, connect string, timeout time.Duration) (*Client, error) {

	address, err := util.CanonicalEndpoint(connect)
	if nil != err {
		return nil, err
	}

	client := &Client{
		log:       logger.New("aggregator"),
		chainName: chainName,
		address:   address,
		v6:        strings.Contains(address, "["),
		timeout:   timeout,
	}
	return client, nil
}

// Close - disconnect and release the socket
func (client *Client) Close() {
	client.Lock()
	defer client.Unlock()
	client.closeSocket()
}

func (client *Client) openSocket() error {

	socket, err := zmq.NewSocket(zmq.REQ)
	if nil != err {
		return err
	}

	// random identity so the aggregator's router can track retries
	randomIdBytes := make([]byte, identifierSize)
	_, err = rand.Read(randomIdBytes)
	if nil != err {
		goto failure
	}
	err = socket.SetIdentity(string(randomIdBytes))
	if nil != err {
		goto failure
	}

	if 0 != client.timeout {
		err = socket.SetSndtimeo(client.timeout)
		if nil != err {
			goto failure
		}
		err = socket.SetRcvtimeo(client.timeout)
		if nil != err {
			goto failure
		}
	}
	err = socket.SetLinger(0)
	if nil != err {
		goto failure
	}
	err = socket.SetReqCorrelate(1)
	if nil != err {
		goto failure
	}
	err = socket.SetReqRelaxed(1)
	if nil != err {
		goto failure
	}

	// heartbeat needs zmq 4.2
	err = socket.SetHeartbeatIvl(heartbeatInterval)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}
	err = socket.SetHeartbeatTimeout(heartbeatTimeout)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}
	err = socket.SetHeartbeatTtl(heartbeatTTL)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}

	err = socket.SetIpv6(client.v6)
	if nil != err {
		goto failure
	}

	err = socket.Connect(client.address)
	if nil != err {
		goto failure
	}

	client.socket = socket
	return nil

failure:
	socket.Close()
	return err
}

// must hold lock
func (client *Client) closeSocket() {
	if nil != client.socket {
		client.socket.Close()
		client.socket = nil
	}
}

// one request/reply round trip
//
// a transport error leaves the REQ state machine stuck, so the socket
// is dropped and reopened on the next call
func (client *Client) transact(command string, parameter []byte) ([][]byte, error) {
	client.Lock()
	defer client.Unlock()

	if nil == client.socket {
		err := client.openSocket()
		if nil != err {
			return nil, err
		}
	}

	var err error
	if nil == parameter {
		_, err = client.socket.SendMessage(command)
	} else {
		_, err = client.socket.SendMessage(command, parameter)
	}
	if nil != err {
		client.log.Errorf("send %q to %s error: %s", command, client.address, err)
		client.closeSocket()
		return nil, err
	}

	data, err := client.socket.RecvMessageBytes(0)
	if nil != err {
		client.log.Errorf("receive %q from %s error: %s", command, client.address, err)
		client.closeSocket()
		return nil, err
	}
	return data, nil
}

// inspect the reply envelope for one command
//
// returns the payload frames after the command frame
func checkReply(command string, data [][]byte) ([][]byte, error) {
	if 0 == len(data) {
		return nil, fault.InvalidSourceResponse
	}
	switch string(data[0]) {
	case command:
		return data[1:], nil
	case "A":
		return nil, fault.NotYetAvailable
	case "E":
		return nil, fault.BlockNotFound
	default:
		return nil, fault.InvalidSourceResponse
	}
}

func heightParameter(height uint64) []byte {
	parameter := make([]byte, 8)
	binary.BigEndian.PutUint64(parameter, height)
	return parameter
}

// Info - query the aggregator's current height and genesis digest
func (client *Client) Info() (*Info, error) {
	data, err := client.transact("I", []byte(client.chainName))
	if nil != err {
		return nil, err
	}

	payload, err := checkReply("I", data)
	if nil != err {
		return nil, err
	}
	if 2 != len(payload) || 8 != len(payload[0]) {
		return nil, fault.InvalidSourceResponse
	}

	info := &Info{
		Height: binary.BigEndian.Uint64(payload[0]),
	}
	err = blockdigest.DigestFromBytes(&info.GenesisDigest, payload[1])
	if nil != err {
		return nil, fault.InvalidSourceResponse
	}

	client.log.Debugf("info: height: %d  genesis: %v", info.Height, info.GenesisDigest)
	return info, nil
}

// fetch one height-addressed record
func (client *Client) fetchAtHeight(command string, height uint64) ([]byte, error) {
	data, err := client.transact(command, heightParameter(height))
	if nil != err {
		return nil, err
	}

	payload, err := checkReply(command, data)
	if nil != err {
		return nil, err
	}
	if 1 != len(payload) || 0 == len(payload[0]) {
		return nil, fault.InvalidSourceResponse
	}
	return payload[0], nil
}

// fetch one hash-addressed record
func (client *Client) fetchByHash(command string, hash blockdigest.Digest) ([]byte, error) {
	data, err := client.transact(command, hash[:])
	if nil != err {
		return nil, err
	}

	payload, err := checkReply(command, data)
	if nil != err {
		if fault.BlockNotFound == err {
			err = fault.ClassNotFound
		}
		return nil, err
	}
	if 1 != len(payload) || 0 == len(payload[0]) {
		return nil, fault.InvalidSourceResponse
	}
	return payload[0], nil
}

// FetchHeader - packed header at a height
func (client *Client) FetchHeader(height uint64) ([]byte, error) {
	return client.fetchAtHeight("H", height)
}

// FetchBody - packed body at a height
func (client *Client) FetchBody(height uint64) ([]byte, error) {
	return client.fetchAtHeight("B", height)
}

// FetchStateDiff - packed state diff at a height
func (client *Client) FetchStateDiff(height uint64) ([]byte, error) {
	return client.fetchAtHeight("D", height)
}

// FetchClass - packed class definition by class hash
func (client *Client) FetchClass(hash blockdigest.Digest) ([]byte, error) {
	return client.fetchByHash("C", hash)
}

// FetchCompiledClass - packed compiled class by compiled class hash
func (client *Client) FetchCompiledClass(hash blockdigest.Digest) ([]byte, error) {
	return client.fetchByHash("X", hash)
}
