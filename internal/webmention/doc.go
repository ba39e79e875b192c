// Package webmention sends and receives webmentions (https://www.w3.org/TR/webmention/).
//
// Sending discovers each external link's endpoint and posts the source and
// target. A source/target pair is posted again only when the article's
// fingerprint changed since the last settled attempt. Receiving pulls a JF2
// feed (as served by webmention.io) and stores mentions by ID. Both sides keep
// their state in a SQLite Store, and sends can be published as events to a
// NATS JetStream subject.
package webmention
