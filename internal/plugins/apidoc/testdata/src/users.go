package users

/**
 * @api {get} /users/:id Read a user
 * @apiName GetUser
 * @apiGroup User Accounts
 * @apiVersion 1.2.0
 * @apiDescription Returns one user
 *   by identifier.
 *
 * @apiParam {Number} id Unique user ID.
 * @apiParam {String} [fields=all] Fields to include.
 * @apiSuccess {String} name Display name.
 */
func Get() {}

/*
 * @api {post} /users Create a user
 * @apiGroup User Accounts
 * @apiParam (Body) {String} name Display name.
 */
func Create() {}

// Not documentation.
func helper() {}
