package domain

// KeyPrefix namespaces every key bylawbot writes to the key-value store.
const KeyPrefix = "bylawbot:"
