// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package literal holds the canonical strings for a fixed set of keys that
// show up constantly in bencoded metadata, resume data and message sync.
// The table is built when the package is initialized and never changes, so
// lookups need no locking and are safe before anything else is set up.
package literal

import "slices"

var keys = [...]string{
	"src", "port", "prot", "ip", "udpport", "azver", "httpport", "downloaded",
	"Content", "path", "path.utf-8", "uploaded", "completed", "persistent", "attributes", "encoding",
	"azureus_properties", "stats.download.added.time", "networks", "p1", "resume data", "dndflags", "blocks", "resume",
	"primaryfile", "resumecomplete", "data", "peersources", "name", "name.utf-8", "valid", "torrent filename", "parameters",
	"secrets", "timesincedl", "tracker_cache", "filedownloaded", "timesinceul", "tracker_peers", "trackerclientextensions", "GlobalRating",
	"comment.utf-8", "Count", "String", "Thumbnail", "Plugin.<internal>.DDBaseTTTorrent::sha1", "type", "Title",
	"displayname", "flags", "stats.download.completed.time", "Description",
	"hash", "ver", "id",
	"body", "seed", "eip", "rid", "iip", "dp2", "tp", "orig",
	"dp", "private", "dht_backup_enable", "max.uploads", "filelinks",
	"sha1", "ed2k", "dht_backup_requested", "ta", "size",
	"dateadded", "bytesin", "announces", "status", "bytesout", "scrapes",
	"passive",
	"pre", "seq", "nick", "msg", "zo", // msgsync
}

var table = func() map[string]string {
	m := make(map[string]string, len(keys))
	for _, k := range keys {
		m[k] = k
	}
	return m
}()

// Lookup returns the canonical string for the UTF-8 key b. Keys outside the
// table miss.
func Lookup(b []byte) (string, bool) {
	s, ok := table[string(b)]
	return s, ok
}

// Keys returns the table's keys in declaration order.
func Keys() []string {
	return slices.Clone(keys[:])
}

// Len returns the number of keys in the table.
func Len() int {
	return len(keys)
}
