package domain

// KeyPrefix namespaces every worklens key in the search store.
const KeyPrefix = "worklens:"
