package service

import "strings"

// narrowScopes resolves the scopes a grant should carry. An empty request
// means everything the client is registered for; a non-empty request must
// be a subset of the client's registered scopes.
func narrowScopes(requested, registered []string) ([]string, error) {
	if len(requested) == 0 {
		return registered, nil
	}

	allowed := make(map[string]struct{}, len(registered))
	for _, s := range registered {
		allowed[s] = struct{}{}
	}

	for _, s := range requested {
		if _, ok := allowed[s]; !ok {
			return nil, ErrInvalidScope
		}
	}
	return requested, nil
}

func joinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}
