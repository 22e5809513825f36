// Package ui implements the petdesk terminal console on Bubble Tea.
//
// # Screens
//
//	/login          username and password form
//	/pets           paged pet list      (tab switches to /tutores)
//	/pets/{id}      pet detail with its tutores
//	/tutores/{id}   tutor detail with their pets
//
// Every navigation, and every tick, goes through route.Guard, so a session
// that expires in the background sends the console back to /login.
//
// # State
//
// The model never caches remote data of its own. It issues collection
// operations as tea.Cmds and re-reads state.Snapshot when they complete or
// when the tick fires, which also picks up refreshes made by the poller.
//
// # Key Bindings
//
//	tab     pets / tutores        /       search by name
//	[ ]     previous / next page  enter   open detail
//	esc     back to list          d       delete (asks y/n)
//	r       reload                T       cycle theme
//	L       logout                ?       help
//	q       quit
package ui
