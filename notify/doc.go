// Package notify stores notices and keeps the unread counters in step
// with them.
//
// A notice row is written first; the unread counter of its addressee is
// bumped only once the row exists. Reading any page of a notice type clears
// that type's counter for the reader.
package notify
