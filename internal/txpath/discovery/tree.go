package discovery

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownParent and ErrDuplicateChild are invariant violations from
// Admit; ErrUnknownWallet is the not-found condition from PathToRoot.
// All three indicate caller bugs, not recoverable runtime states.
var (
	ErrUnknownParent  = errors.New("discovery: parent wallet not in tree")
	ErrDuplicateChild = errors.New("discovery: child wallet already in tree")
	ErrUnknownWallet  = errors.New("discovery: wallet not in tree")
)

// Link records the single edge that discovered a wallet: the parent it
// was first seen from and the transaction hash proving the connection.
type Link struct {
	Parent string
	TxHash string
}

// Tree is a rooted, append-only discovery tree over wallet addresses.
// Every wallet except the root has exactly one parent link, so the
// path from any wallet back to the root is unique and cycle-free.
// Wallets are admitted at most once and never removed.
//
// A Tree is exclusively owned by one search; no internal locking.
type Tree struct {
	root     string
	parent   map[string]Link
	observed map[string]struct{}
	leaves   map[string]struct{}
}

func NewTree(root string) *Tree {
	return &Tree{
		root:     root,
		parent:   make(map[string]Link),
		observed: map[string]struct{}{root: {}},
		leaves:   map[string]struct{}{root: {}},
	}
}

func (t *Tree) Root() string { return t.root }

// Size is the number of observed wallets, root included.
func (t *Tree) Size() int { return len(t.observed) }

func (t *Tree) Contains(wallet string) bool {
	_, ok := t.observed[wallet]
	return ok
}

// Admit links child under parent with txHash as proof. The parent must
// already be in the tree and the child must not be; violating either
// returns an invariant error the caller must treat as fatal.
func (t *Tree) Admit(parent, child, txHash string) error {
	if _, ok := t.observed[parent]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParent, parent)
	}
	if _, ok := t.observed[child]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateChild, child)
	}
	t.parent[child] = Link{Parent: parent, TxHash: txHash}
	t.observed[child] = struct{}{}
	delete(t.leaves, parent)
	t.leaves[child] = struct{}{}
	return nil
}

// ParentOf returns the link that admitted wallet. ok is false for the
// root and for wallets not in the tree.
func (t *Tree) ParentOf(wallet string) (Link, bool) {
	l, ok := t.parent[wallet]
	return l, ok
}

// Leaves returns a sorted copy of the wallets with no children yet.
func (t *Tree) Leaves() []string {
	out := make([]string, 0, len(t.leaves))
	for w := range t.leaves {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// PathToRoot walks parent links from wallet up to the root.
// wallets[0] is the query wallet and wallets[len-1] the root;
// txHashes[i] proves the link between wallets[i] and wallets[i+1], so
// len(wallets) == len(txHashes)+1. For the root itself the path is
// ([root], nil). The walk is iterative and terminates within Size()
// steps because admission order forbids cycles.
func (t *Tree) PathToRoot(wallet string) (wallets, txHashes []string, err error) {
	if !t.Contains(wallet) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownWallet, wallet)
	}
	wallets = append(wallets, wallet)
	for cur := wallet; cur != t.root; {
		link := t.parent[cur]
		txHashes = append(txHashes, link.TxHash)
		wallets = append(wallets, link.Parent)
		cur = link.Parent
	}
	return wallets, txHashes, nil
}
