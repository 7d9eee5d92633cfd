package model

// CartItem models a row in the `cart_items` table.  The table is keyed by
// (user_id, product_id), so a user holds at most one row per product and
// adding an already-present product bumps its quantity instead.
type CartItem struct {
    UserID    uint64 // cart_items.user_id
    ProductID uint64 // cart_items.product_id
    Quantity  int64  // cart_items.quantity
}

// CartLine is a cart item joined with its product record, the shape the
// cart endpoints return to the front end.
type CartLine struct {
    Product  Product
    Quantity int64
}
