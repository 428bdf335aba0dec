// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package relay implements construction, authentication, and redundant relaying
of mix relay messages.

A participant of a mixing round proposes an input and output by creating a
relay message with NewRelayMessage.  The message is signed with a session key
derived from the round's shared secret by DeriveSessionKey, and the signature
is verified before the message is returned so that a faulty signature is never
sent.  Receivers that know the same shared secret check the proposal with
VerifyRelay.

A Relayer pushes a message through two distinct peers chosen uniformly at
random among the highest ranked enabled relay peers reported by a
RankingService.  Each leg resolves its peer, opens a Session with the
Transport, writes the message, and closes the session.  Legs run concurrently
with independent timeouts, and a failed leg never affects the other.  Relaying
is best effort, so Relay reports success once both legs were attempted;
RelayWithStatus additionally returns the outcome of each leg.

Shared secrets and derived session keys are never logged or retained beyond a
single call.
*/
package relay
