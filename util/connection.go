// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"net"
	"strconv"
	"strings"

	"github.com/lumen-rollup/lumend/fault"
)

// errors returned by this package
var (
	errInvalidIPAddress  = fault.InvalidError("invalid IP address")
	errInvalidPortNumber = fault.InvalidError("invalid port number")
)

// CanonicalIPandPort - make the IP:Port canonical
//
// examples:
//   IPv4:  127.0.0.1:1234
//   IPv6:  [::1]:1234
func CanonicalIPandPort(hostPort string) (string, error) {

	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return "", err
	}

	IP := net.ParseIP(strings.Trim(host, " "))
	if nil == IP {
		return "", errInvalidIPAddress
	}

	numericPort, err := strconv.Atoi(strings.Trim(port, " "))
	if nil != err {
		return "", err
	}
	if numericPort < 1 || numericPort > 65535 {
		return "", errInvalidPortNumber
	}

	if nil != IP.To4() {
		return IP.String() + ":" + strconv.Itoa(numericPort), nil
	}
	return "[" + IP.String() + "]:" + strconv.Itoa(numericPort), nil
}

// CanonicalEndpoint - make a zmq endpoint canonical
//
// accepts "tcp://HOST:PORT" or plain "HOST:PORT"
// always returns the "tcp://HOST:PORT" form
func CanonicalEndpoint(endpoint string) (string, error) {
	const prefix = "tcp://"
	s := endpoint
	if strings.HasPrefix(s, prefix) {
		s = s[len(prefix):]
	}
	canonical, err := CanonicalIPandPort(s)
	if nil != err {
		return "", err
	}
	return prefix + canonical, nil
}
