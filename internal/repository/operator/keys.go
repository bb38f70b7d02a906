package operator

import (
	"crypto/sha1" //nolint:gosec // key shortening, not security
	"encoding/hex"
)

// Key layout:
//
//	{prefix}operator:doc:{id}                 JSON document
//	{prefix}operator:claim:name:{name}        -> id
//	{prefix}operator:claim:pathset:{hash}     -> id
//	{prefix}operator:claim:xpath:{sha1(raw)}  -> id

type keys struct {
	prefix string
}

func (k keys) doc(id string) string { return k.prefix + "operator:doc:" + id }

func (k keys) docPattern() string { return k.prefix + "operator:doc:*" }

func (k keys) name(name string) string { return k.prefix + "operator:claim:name:" + name }

func (k keys) pathSet(hash string) string { return k.prefix + "operator:claim:pathset:" + hash }

func (k keys) xpath(raw string) string {
	sum := sha1.Sum([]byte(raw)) //nolint:gosec // see import
	return k.prefix + "operator:claim:xpath:" + hex.EncodeToString(sum[:])
}
