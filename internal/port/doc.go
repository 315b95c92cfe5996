// Package port inspects the listen ports of forwarding rules.
//
// realm binds one socket per rule. Two rules on the same port clash when
// their hosts are equal or either one is a wildcard (0.0.0.0 or [::]).
// Hand-edited configuration files can contain such pairs; Append rejects
// exact duplicates only.
//
//	for _, c := range port.Conflicts(list) {
//		fmt.Println(c) // port 8080 is used by rules 1, 3
//	}
//
// Free suggests a listen port using first-fit over a range:
//
//	p, err := port.Free(list, 10000, 65535)
package port
