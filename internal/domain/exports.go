package domain

import (
	interfaces "github.com/Deyond-Management/deyondcrypt/internal/domain/interfaces"
	types "github.com/Deyond-Management/deyondcrypt/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	ChainType             = types.ChainType
	Address               = types.Address
	SessionID             = types.SessionID
	GroupID               = types.GroupID
	SignedPreKeyID        = types.SignedPreKeyID
	OneTimePreKeyID       = types.OneTimePreKeyID
	SenderKeyID           = types.SenderKeyID
	KeyPair               = types.KeyPair
	IdentityKeyPair       = types.IdentityKeyPair
	SignedPreKey          = types.SignedPreKey
	OneTimePreKey         = types.OneTimePreKey
	OneTimePreKeyPublic   = types.OneTimePreKeyPublic
	PreKeyBundle          = types.PreKeyBundle
	InitialMessage        = types.InitialMessage
	RatchetHeader         = types.RatchetHeader
	RatchetState          = types.RatchetState
	SessionState          = types.SessionState
	SessionSummary        = types.SessionSummary
	SenderKeyState        = types.SenderKeyState
	SenderKeyDistribution = types.SenderKeyDistribution
	GroupSessionState     = types.GroupSessionState
	GroupSummary          = types.GroupSummary
	Party                 = types.Party
	Envelope              = types.Envelope
	GroupMessage          = types.GroupMessage
)

// Chain type constants re-exported for compact imports.
const (
	ChainEVM    = types.ChainEVM
	ChainSolana = types.ChainSolana
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	PreKeyStore     = interfaces.PreKeyStore
	SessionStore    = interfaces.SessionStore
	GroupStore      = interfaces.GroupStore
	IdentityService = interfaces.IdentityService
	PreKeyService   = interfaces.PreKeyService
	SessionManager  = interfaces.SessionManager
	GroupManager    = interfaces.GroupManager
)
