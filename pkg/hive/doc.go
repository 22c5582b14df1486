/*
Package hive is a read-only store over an offline Windows registry hive.

A hive is memory mapped, checked for a dirty base block, optionally patched
from its transaction logs, and then parsed into an immutable tree of keys and
values:

	h, err := hive.Open("SOFTWARE", hive.Options{RecoverDeleted: true})
	if err != nil {
	    return err
	}
	defer h.Close()

	if h.Dirty() {
	    logs, _ := translog.FindLogs(h.Path())
	    if _, err := h.ReplayLogs(logs); err != nil {
	        return err
	    }
	}

	key, err := h.GetKey(`Microsoft\Windows\CurrentVersion\Run`)
	if err != nil {
	    return err
	}
	for _, v := range key.Values() {
	    fmt.Println(v.Name(), v.Type(), v.Data())
	}

Key paths never include the root key name; GetKey accepts paths with or
without it. Name lookups are case-insensitive.

# Deleted entries

With Options.RecoverDeleted set, NK records found in free cells whose parent
key is still reachable are attached to that parent as deleted subkeys. Their
values are flagged deleted as well.
*/
package hive
