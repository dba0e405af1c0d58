// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// error instances
//
// Provides a single instance of errors to allow easy comparison
package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type TemporaryError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised     = ProcessError("already initialised")
	BlockNotFound          = NotFoundError("block not found")
	BodyBeforeHeader       = InvalidError("body cannot be stored before its header")
	ClassBeforeState       = InvalidError("class cannot be stored before its state diff")
	CertificateExists      = ExistsError("certificate file already exists")
	ClassNotFound          = NotFoundError("class not found")
	CompiledBeforeClass    = InvalidError("compiled class cannot be stored before its class")
	ConnectIsRequired      = InvalidError("connect is required")
	DataDirectoryIsMissing = NotFoundError("data directory is missing")
	DeserializationFailed  = ProcessError("deserialization failed")
	GenesisMismatch        = InvalidError("genesis block mismatch")
	InvalidChain           = InvalidError("invalid chain")
	InvalidCount           = InvalidError("invalid count")
	InvalidDnsTxtRecord    = InvalidError("invalid dns txt record")
	InvalidLoggerChannel   = InvalidError("invalid logger channel")
	InvalidSourceResponse  = InvalidError("invalid source response")
	KeyAlreadyExists       = ExistsError("key already exists")
	KeyFileExists          = ExistsError("private key file already exists")
	MarkerMismatch         = InvalidError("append height does not match marker")
	MissingParameters      = InvalidError("missing parameters")
	NotAvailableDuringSync = TemporaryError("not available during synchronise")
	NotConnected           = NotFoundError("not connected")
	NotInitialised         = ProcessError("not initialised")
	NotYetAvailable        = TemporaryError("not yet available")
	RateLimiting           = TemporaryError("rate limiting")
	ReceiptCountMismatch   = InvalidError("receipt count does not match transaction count")
	SchemaVersionMismatch  = ProcessError("storage schema version mismatch")
	StateBeforeHeader      = InvalidError("state diff cannot be stored before its header")
	StorageCorrupted       = ProcessError("storage is corrupted")
	TransactionIsInUse     = TemporaryError("transaction is in use")
	WrongNetworkForGenesis = InvalidError("wrong network for genesis")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string    { return string(e) }
func (e InvalidError) Error() string   { return string(e) }
func (e NotFoundError) Error() string  { return string(e) }
func (e ProcessError) Error() string   { return string(e) }
func (e TemporaryError) Error() string { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool { _, ok := e.(ExistsError); return ok }

// IsErrInvalid - check for invalid class
func IsErrInvalid(e error) bool { _, ok := e.(InvalidError); return ok }

// IsErrNotFound - check for not found class
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }

// IsErrProcess - check for process class
func IsErrProcess(e error) bool { _, ok := e.(ProcessError); return ok }

// IsErrTemporary - check for temporary class, i.e. worth retrying
func IsErrTemporary(e error) bool { _, ok := e.(TemporaryError); return ok }
