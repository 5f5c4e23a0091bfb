// Package api defines the Harbor service wire types and a typed client for
// every operation the stores consume. Response fields use the service's
// snake_case names; command arguments use camelCase.
package api
