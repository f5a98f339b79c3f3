// Package feedback holds the inbox domain: tripcode signatures, identities,
// messages, the Inbox aggregate with its expiry and ownership rules, and the
// FeedbackService that orchestrates them against a Database.
//
// Signatures are a weak pseudonymity scheme. The salt is fixed and public, so
// anyone can brute-force a short secret offline. A signature lets readers
// recognise a poster across messages; it is not a credential.
package feedback
