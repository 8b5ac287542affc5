// Package settlement is the sponsored settlement engine: a family of sponsor
// contracts, each holding an escrow balance, a creation-fee configuration and
// a sponsorship policy, executing caller-submitted operations against
// persistent state. Calls run one at a time; each call is one datastore
// transaction and is assigned a monotonically increasing block height.
package settlement

const Version = "v0.1.0"
