// Package navigation maps roles to their side menus and models the tab's navigation history.
package navigation
