// Package proxy implements the remote change-notified storage engine: a
// local cache over an upstream backend kept current by an external push feed
// of (table, key, kind) change notifications.
//
// Writes forward to the upstream and are mirrored locally. Before answering
// any read, the proxy drains every notification already delivered and
// applies it to the cache, so a read issued after a change event always
// observes it. Tables are primed with a full upstream scan on first read.
//
// The transport behind the feed channel is an external collaborator; the
// proxy sees only the channel.
package proxy
