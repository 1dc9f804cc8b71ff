// utilitário pequeno para formatação de valores numéricos em headers,
// sem puxar fmt só para isso.

package ratelimit

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }
