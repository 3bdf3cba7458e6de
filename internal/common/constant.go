package common

// TokenCookieName is the cookie that carries the login session token.
const TokenCookieName = "token"

// MessageTag is the application message every login proof commits to.
const MessageTag = "GlueAuth"
