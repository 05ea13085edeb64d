// Package erp holds the portal-side model of the records synchronized with
// the external NetSuite account: purchase orders, vendor accounts and
// inventory items, plus the sync-run audit log.
//
// The package defines the ports the sync engine depends on (the signed
// Gateway into NetSuite, repositories over the record store, the advisory
// RowLocker and the outbound Notifier) so that application services stay
// independent of the concrete NetSuite client and gorm persistence.
package erp
