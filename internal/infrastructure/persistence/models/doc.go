// Package models contains GORM persistence models that map to the dvd_
// tables. Domain types stay free of ORM tags; each model converts to and
// from its domain counterpart with ToDomain and FromDomain.
//
//   - account.go: dvd_crawl_account_info and dvd_account_store_relation
//   - menu.go: dvd_config_menu
package models
