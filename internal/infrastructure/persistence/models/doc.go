// Package models contains GORM persistence models. They are kept apart from
// domain types so the domain stays free of ORM tags.
package models
