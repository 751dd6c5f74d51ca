// Package language maps free-text language names, including native-script
// spellings and parenthetical qualifiers, onto the closed set of canonical
// codes the pipeline supports. A name that cannot be mapped means the
// pipeline must stop; downstream stages require a concrete code.
package language
